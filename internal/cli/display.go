package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/niquolic/foot-chatbot/internal/agent"
	"github.com/niquolic/foot-chatbot/internal/tools"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// defaultToolIcon is shown for tools without a dedicated icon
const defaultToolIcon = "🔧"

var toolIcons = map[string]string{
	"geocode_city":           "📍",
	"get_city_temperature":   "🌡️",
	"get_city_precipitation": "🌧️",
	"get_city_wind":          "💨",
	"get_city_wind_forecast": "🌬️",
	"find_team":              "🔎",
	"get_team_results":       "⚽️",
	"get_team_fixtures":      "📅",
	"get_league_results":     "🏆",
	"get_league_standings":   "📊",
}

// toolIcon returns the icon of a tool
func toolIcon(name string) string {
	if icon, ok := toolIcons[name]; ok {
		return icon
	}
	return defaultToolIcon
}

// displayName turns a tool name into title case words: get_city_wind -> Get City Wind
func displayName(name string) string {
	words := strings.Join(strings.FieldsFunc(name, func(r rune) bool { return r == '_' }), " ")
	return cases.Title(language.English).String(words)
}

// stepHeader is the one-line summary of a tool step
func stepHeader(tool, input string) string {
	return fmt.Sprintf("%s %s: %s", toolIcon(tool), displayName(tool), input)
}

// formatSteps renders the intermediate steps of an answer
func formatSteps(steps []agent.Step, maxResultLen int) string {
	if len(steps) == 0 {
		return "No tool was used for the last answer."
	}

	var sb strings.Builder
	for i, step := range steps {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(stepHeader(step.Tool, step.Input))
		sb.WriteString("\n")
		if log := strings.TrimSpace(step.Log); log != "" {
			fmt.Fprintf(&sb, "   Reasoning: %s\n", truncateForDisplay(log, maxResultLen))
		}
		fmt.Fprintf(&sb, "   Result: %s\n", truncateForDisplay(step.Observation, maxResultLen))
	}
	return sb.String()
}

// formatTools renders the tool list with each tool's input format
func formatTools(list []tools.Tool) string {
	var sb strings.Builder
	for _, tool := range list {
		fmt.Fprintf(&sb, "  %s %-24s %s\n", toolIcon(tool.Name()), tool.Name(), tool.Description())
		if st, ok := tool.(*tools.StringTool); ok {
			fmt.Fprintf(&sb, "     input: %s\n", st.Adapter().Example())
		}
	}
	return sb.String()
}

// truncateForDisplay flattens text to one line and cuts it after maxLen runes
func truncateForDisplay(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.Join(strings.Fields(text), " ")

	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + "..."
}
