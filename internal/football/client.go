// Package football is a small client for the football-data.org v4 API.
package football

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/niquolic/foot-chatbot/internal/logger"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultBaseURL is the football-data.org v4 root.
const DefaultBaseURL = "https://api.football-data.org/v4"

// ErrNoAPIKey is returned when the client has no X-Auth-Token.
var ErrNoAPIKey = errors.New("football-data.org API key is not configured (set FOOTBALL_DATA_API_KEY)")

// APIError is a non-2xx answer from football-data.org.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("football-data request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("football-data request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client talks to football-data.org.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Team is a club as listed by a competition.
type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Venue     string `json:"venue,omitempty"`
}

func (t Team) matches(query string) bool {
	q := foldName(query)
	for _, s := range []string{t.Name, t.ShortName, t.TLA} {
		if s != "" && strings.Contains(foldName(s), q) {
			return true
		}
	}
	return false
}

// foldName lowercases s and strips diacritics: "Saint-Étienne" -> "saint-etienne"
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

type teamRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type match struct {
	UTCDate     time.Time `json:"utcDate"`
	Status      string    `json:"status"`
	Competition struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"competition"`
	HomeTeam teamRef `json:"homeTeam"`
	AwayTeam teamRef `json:"awayTeam"`
	Score    struct {
		FullTime struct {
			Home *int `json:"home"`
			Away *int `json:"away"`
		} `json:"fullTime"`
	} `json:"score"`
}

// Match is a finished or scheduled fixture.
type Match struct {
	Date        string `json:"date"`
	Competition string `json:"competition,omitempty"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Score       string `json:"score,omitempty"`
	Status      string `json:"status"`
}

func (m match) toMatch() Match {
	out := Match{
		Date:        m.UTCDate.Format("2006-01-02 15:04"),
		Competition: m.Competition.Name,
		HomeTeam:    m.HomeTeam.Name,
		AwayTeam:    m.AwayTeam.Name,
		Status:      m.Status,
	}
	if h, a := m.Score.FullTime.Home, m.Score.FullTime.Away; h != nil && a != nil {
		out.Score = fmt.Sprintf("%d-%d", *h, *a)
	}
	return out
}

// Standing is one row of a league table.
type Standing struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	PlayedGames    int    `json:"played"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	Points         int    `json:"points"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
}

// SearchTeams lists the teams of a competition whose name, short name or TLA contains name.
func (c *Client) SearchTeams(ctx context.Context, competition, name string) ([]Team, error) {
	competition = normalizeCode(competition)
	name = strings.TrimSpace(name)
	if competition == "" {
		return nil, fmt.Errorf("competition code cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("team name cannot be empty")
	}

	var payload struct {
		Teams []Team `json:"teams"`
	}
	if err := c.get(ctx, "/competitions/"+url.PathEscape(competition)+"/teams", nil, &payload); err != nil {
		return nil, err
	}

	var found []Team
	for _, t := range payload.Teams {
		if t.matches(name) {
			found = append(found, t)
		}
	}
	return found, nil
}

// TeamResults returns the team's most recent finished matches, newest first.
func (c *Client) TeamResults(ctx context.Context, teamID, limit int) ([]Match, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("invalid team id %d", teamID)
	}
	return c.matches(ctx, "/teams/"+strconv.Itoa(teamID)+"/matches", "FINISHED", limit, true)
}

// Fixtures returns the team's next scheduled matches, soonest first.
func (c *Client) Fixtures(ctx context.Context, teamID, limit int) ([]Match, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("invalid team id %d", teamID)
	}
	return c.matches(ctx, "/teams/"+strconv.Itoa(teamID)+"/matches", "SCHEDULED,TIMED", limit, false)
}

// CompetitionResults returns the latest finished matches of a competition, newest first.
func (c *Client) CompetitionResults(ctx context.Context, competition string, limit int) ([]Match, error) {
	competition = normalizeCode(competition)
	if competition == "" {
		return nil, fmt.Errorf("competition code cannot be empty")
	}
	return c.matches(ctx, "/competitions/"+url.PathEscape(competition)+"/matches", "FINISHED", limit, true)
}

// Standings returns the TOTAL table of a competition.
func (c *Client) Standings(ctx context.Context, competition string) ([]Standing, error) {
	competition = normalizeCode(competition)
	if competition == "" {
		return nil, fmt.Errorf("competition code cannot be empty")
	}

	var payload struct {
		Standings []struct {
			Type  string `json:"type"`
			Table []struct {
				Position       int     `json:"position"`
				Team           teamRef `json:"team"`
				PlayedGames    int     `json:"playedGames"`
				Won            int     `json:"won"`
				Draw           int     `json:"draw"`
				Lost           int     `json:"lost"`
				Points         int     `json:"points"`
				GoalsFor       int     `json:"goalsFor"`
				GoalsAgainst   int     `json:"goalsAgainst"`
				GoalDifference int     `json:"goalDifference"`
			} `json:"table"`
		} `json:"standings"`
	}
	if err := c.get(ctx, "/competitions/"+url.PathEscape(competition)+"/standings", nil, &payload); err != nil {
		return nil, err
	}

	for _, s := range payload.Standings {
		if s.Type != "TOTAL" {
			continue
		}
		rows := make([]Standing, 0, len(s.Table))
		for _, r := range s.Table {
			rows = append(rows, Standing{
				Position:       r.Position,
				Team:           r.Team.Name,
				PlayedGames:    r.PlayedGames,
				Won:            r.Won,
				Draw:           r.Draw,
				Lost:           r.Lost,
				Points:         r.Points,
				GoalsFor:       r.GoalsFor,
				GoalsAgainst:   r.GoalsAgainst,
				GoalDifference: r.GoalDifference,
			})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("no total standings for competition %s", competition)
}

func (c *Client) matches(ctx context.Context, path, status string, limit int, newestFirst bool) ([]Match, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	params := url.Values{}
	params.Set("status", status)

	var payload struct {
		Matches []match `json:"matches"`
	}
	if err := c.get(ctx, path, params, &payload); err != nil {
		return nil, err
	}

	ms := payload.Matches
	sort.SliceStable(ms, func(i, j int) bool {
		if newestFirst {
			return ms[i].UTCDate.After(ms[j].UTCDate)
		}
		return ms[i].UTCDate.Before(ms[j].UTCDate)
	})
	if len(ms) > limit {
		ms = ms[:limit]
	}

	out := make([]Match, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.toMatch())
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Auth-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("football-data request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Warn("football-data %s returned status %d", path, resp.StatusCode)
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
