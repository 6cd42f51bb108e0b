package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/niquolic/foot-chatbot/internal/football"
	"github.com/niquolic/foot-chatbot/internal/stringtool"
)

const competitionHint = "Competition codes: FL1 (Ligue 1), PL (Premier League), PD (La Liga), SA (Serie A), BL1 (Bundesliga), CL (Champions League). An empty competition uses %s."

// footballTools binds the football-data.org client to string-input tool functions.
type footballTools struct {
	client             *football.Client
	defaultCompetition string
}

func (f footballTools) competition(code string) string {
	if strings.TrimSpace(code) == "" {
		return f.defaultCompetition
	}
	return code
}

func (f footballTools) findTeam(ctx context.Context, args []any) (string, error) {
	name, code := args[0].(string), f.competition(args[1].(string))
	teams, err := f.client.SearchTeams(ctx, code, name)
	if err != nil {
		return "", err
	}
	if len(teams) == 0 {
		return fmt.Sprintf("No team matching '%s' in competition %s.", name, strings.ToUpper(code)), nil
	}
	return renderJSON(teams)
}

func (f footballTools) teamResults(ctx context.Context, args []any) (string, error) {
	matches, err := f.client.TeamResults(ctx, args[0].(int), args[1].(int))
	if err != nil {
		return "", err
	}
	return renderMatches(matches, "No finished match found for this team.")
}

func (f footballTools) teamFixtures(ctx context.Context, args []any) (string, error) {
	matches, err := f.client.Fixtures(ctx, args[0].(int), args[1].(int))
	if err != nil {
		return "", err
	}
	return renderMatches(matches, "No upcoming match scheduled for this team.")
}

func (f footballTools) leagueResults(ctx context.Context, args []any) (string, error) {
	matches, err := f.client.CompetitionResults(ctx, f.competition(args[0].(string)), args[1].(int))
	if err != nil {
		return "", err
	}
	return renderMatches(matches, "No finished match found for this competition.")
}

func (f footballTools) leagueStandings(ctx context.Context, args []any) (string, error) {
	rows, err := f.client.Standings(ctx, f.competition(args[0].(string)))
	if err != nil {
		return "", err
	}
	return renderJSON(rows)
}

func renderMatches(matches []football.Match, empty string) (string, error) {
	if len(matches) == 0 {
		return empty, nil
	}
	return renderJSON(matches)
}

// FootballTools returns the football-data.org tools. defaultCompetition replaces an empty
// competition value.
func FootballTools(client *football.Client, defaultCompetition string) []Tool {
	if strings.TrimSpace(defaultCompetition) == "" {
		defaultCompetition = "FL1"
	}
	f := footballTools{client: client, defaultCompetition: defaultCompetition}
	hint := fmt.Sprintf(competitionHint, defaultCompetition)

	return []Tool{
		NewStringTool(
			stringtool.New(f.findTeam, stringtool.Params("team_name:text", "competition:text"), stringtool.WithName("find_team")),
			"Find a team and its numeric id by name within a competition. "+hint,
		),
		NewStringTool(
			stringtool.New(f.teamResults, stringtool.Params("team_id:int", "limit:int"), stringtool.WithName("get_team_results")),
			"Get the most recent finished matches of a team with date, home team, away team and final score. Use find_team first to get the team id.",
		),
		NewStringTool(
			stringtool.New(f.teamFixtures, stringtool.Params("team_id:int", "limit:int"), stringtool.WithName("get_team_fixtures")),
			"Get the next scheduled matches of a team. Use find_team first to get the team id.",
		),
		NewStringTool(
			stringtool.New(f.leagueResults, stringtool.Params("competition:text", "limit:int"), stringtool.WithName("get_league_results")),
			"Get the latest finished matches of a competition. "+hint,
		),
		NewStringTool(
			stringtool.New(f.leagueStandings, stringtool.Params("competition:text"), stringtool.WithName("get_league_standings")),
			"Get the current league table of a competition. "+hint,
		),
	}
}
