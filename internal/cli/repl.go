package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/niquolic/foot-chatbot/internal/agent"
	"github.com/niquolic/foot-chatbot/internal/config"
	"github.com/niquolic/foot-chatbot/internal/llm"
	"github.com/niquolic/foot-chatbot/internal/logger"
	"github.com/niquolic/foot-chatbot/internal/memory"
	"github.com/niquolic/foot-chatbot/internal/tools"
)

const (
	Version = "0.1.0"

	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"

	// stepResultLen caps tool results printed by /steps
	stepResultLen = 300
)

// Run starts the CLI interactive interface
func Run(cfg *config.Config) error {
	// Display welcome message
	printWelcome()

	// Check API Key
	if !cfg.IsAPIKeyConfigured() {
		return promptAPIKey(cfg)
	}

	// Initialize components
	llmClient := llm.NewFromConfig(cfg.Model)

	memStore, err := memory.NewSQLiteStore(cfg.Memory.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize memory store: %w", err)
	}
	defer memStore.Close()

	// Create tool registry
	registry := tools.NewDefaultRegistry(cfg)
	if cfg.Football.APIKey == "" {
		fmt.Printf("%s⚠️  %s is not set, football tools will report an error%s\n\n", colorYellow, config.FootballAPIKeyName, colorReset)
	}

	// Create Agent
	ag, err := agent.New(
		cfg, llmClient, memStore, registry,
		agent.WithStreamHandler(streamOutput),
		agent.WithToolCallHandler(toolCallOutput),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize Agent: %w", err)
	}
	logger.Info("REPL started with model %s, session %s", llmClient.Model(), ag.SessionID())

	// Start REPL
	return runREPL(ag, registry)
}

// printWelcome prints welcome message
func printWelcome() {
	fmt.Printf("\n%s⚽️ AI Football Chatbot v%s%s - Your AI Football Assistant\n", colorCyan, Version, colorReset)
	fmt.Printf("%sType /help for help, /exit to quit%s\n", colorGray, colorReset)
	fmt.Printf("%sFor multi-line input: end a line with \\, then press Enter twice to submit%s\n\n", colorGray, colorReset)
}

// promptAPIKey prompts user to configure API Key
func promptAPIKey(cfg *config.Config) error {
	fmt.Printf("%s⚠️  API Key not configured%s\n", colorYellow, colorReset)
	fmt.Printf("%sSet %s in config/config.env or the environment, or enter it now%s\n\n", colorGray, config.ModelAPIKeyName, colorReset)

	// Create readline instance for API key input
	rl, err := readline.New("Please enter your Google AI Studio API Key: ")
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	apiKey, err := rl.Readline()
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API Key cannot be empty")
	}

	cfg.Model.APIKey = apiKey
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("\n%s✅ API Key saved%s\n\n", colorGreen, colorReset)

	// Restart
	return Run(cfg)
}

// getHistoryFilePath returns the history file path
func getHistoryFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	historyDir := filepath.Join(homeDir, ".footbot")
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return ""
	}
	return filepath.Join(historyDir, "history")
}

// runREPL runs the interactive REPL with readline support
func runREPL(ag *agent.Agent, registry *tools.Registry) error {
	// Configure readline
	rlConfig := &readline.Config{
		Prompt:          fmt.Sprintf("%s🙋 You: %s", colorGreen, colorReset),
		HistoryFile:     getHistoryFilePath(),
		HistoryLimit:    1000,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    newCompleter(),

		HistorySearchFold:      true,
		DisableAutoSaveHistory: false,
	}

	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Printf("\n\n%sGoodbye! 👋%s\n", colorCyan, colorReset)
		cancel()
		rl.Close()
		logger.Close()
		os.Exit(0)
	}()

	fmt.Printf("%s⚽️ Bot: %s%s\n", colorBlue, colorReset, ag.InitialMessage())
	fmt.Printf("%s%s%s\n\n", colorGray, ag.InputPlaceholder(), colorReset)

	// Multi-line input mode
	var multiLineBuffer strings.Builder
	inMultiLine := false

	for {
		// Set prompt based on mode
		if inMultiLine {
			rl.SetPrompt(fmt.Sprintf("%s...  %s", colorGray, colorReset))
		} else {
			rl.SetPrompt(fmt.Sprintf("%s🙋 You: %s", colorGreen, colorReset))
		}

		// Read user input with readline (supports backspace, arrow keys, history)
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if inMultiLine {
					// Cancel multi-line mode
					multiLineBuffer.Reset()
					inMultiLine = false
					fmt.Println()
					continue
				}
				fmt.Printf("\n%sPress Ctrl+C again or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if err == io.EOF {
				fmt.Printf("\n%sGoodbye! 👋%s\n", colorCyan, colorReset)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		// Handle multi-line input
		if inMultiLine {
			if line == "" {
				// Empty line ends multi-line input
				inMultiLine = false
				input := strings.TrimSpace(multiLineBuffer.String())
				multiLineBuffer.Reset()

				if input != "" {
					processInput(ctx, ag, input)
				}
				continue
			}
			multiLineBuffer.WriteString(line)
			multiLineBuffer.WriteString("\n")
			continue
		}

		// Single line mode
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasSuffix(input, "\\") {
			inMultiLine = true
			multiLineBuffer.WriteString(strings.TrimSuffix(input, "\\"))
			multiLineBuffer.WriteString("\n")
			fmt.Printf("%s(Multi-line mode: press Enter twice to submit, Ctrl+C to cancel)%s\n", colorGray, colorReset)
			continue
		}

		// Handle built-in commands
		if strings.HasPrefix(input, "/") {
			if handleCommand(os.Stdout, input, ag, registry) {
				continue
			}
			return nil // /exit command
		}

		processInput(ctx, ag, input)
	}
}

// processInput sends user input to the agent; the answer is streamed by streamOutput
func processInput(ctx context.Context, ag *agent.Agent, input string) {
	fmt.Printf("\n%s⚽️ Bot: %s", colorBlue, colorReset)

	resp, err := ag.Chat(ctx, input)
	if err != nil {
		fmt.Printf("\n%s❌ Error: %v%s\n", colorRed, err, colorReset)
	} else if n := len(resp.IntermediateSteps); n > 0 {
		fmt.Printf("\n%s(%d tool call(s), type /steps for details)%s", colorGray, n, colorReset)
	}

	fmt.Println()
	fmt.Println()
}

// handleCommand handles built-in commands, returns true to continue loop, false to exit
func handleCommand(w io.Writer, cmd string, ag *agent.Agent, registry *tools.Registry) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	command := strings.ToLower(parts[0])

	switch command {
	case "/help":
		printHelp(w)
		return true

	case "/reset", "/clear":
		if err := ag.Reset(); err != nil {
			fmt.Fprintf(w, "%s❌ Failed to reset chat: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Fprintf(w, "%s🔄 Chat reset%s\n", colorGreen, colorReset)
			fmt.Fprintf(w, "%s⚽️ Bot: %s%s\n", colorBlue, colorReset, ag.InitialMessage())
		}
		return true

	case "/steps":
		steps, err := ag.LastSteps()
		if err != nil {
			fmt.Fprintf(w, "%s❌ Failed to load steps: %v%s\n", colorRed, err, colorReset)
			return true
		}
		fmt.Fprintln(w, formatSteps(steps, stepResultLen))
		return true

	case "/tools":
		fmt.Fprintf(w, "%s🧰 Available tools:%s\n", colorYellow, colorReset)
		fmt.Fprint(w, formatTools(registry.List()))
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintf(w, "%sGoodbye! 👋%s\n", colorCyan, colorReset)
		return false

	case "/config":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(w, "%s❌ Failed to load config: %v%s\n", colorRed, err, colorReset)
		} else {
			fmt.Fprintln(w, cfg.String())
		}
		return true

	case "/history":
		// Clear command history
		if len(parts) > 1 && parts[1] == "clear" {
			historyFile := getHistoryFilePath()
			if historyFile != "" {
				if err := os.WriteFile(historyFile, []byte{}, 0644); err != nil {
					fmt.Fprintf(w, "%s❌ Failed to clear history: %v%s\n", colorRed, err, colorReset)
				} else {
					fmt.Fprintf(w, "%s✅ Command history cleared%s\n", colorGreen, colorReset)
				}
			}
		} else {
			fmt.Fprintf(w, "%sUse Up/Down arrow keys to browse command history%s\n", colorGray, colorReset)
			fmt.Fprintf(w, "%sUse /history clear to clear history%s\n", colorGray, colorReset)
		}
		return true

	default:
		fmt.Fprintf(w, "%s❓ Unknown command: %s%s\n", colorYellow, cmd, colorReset)
		fmt.Fprintln(w, "Type /help for available commands")
		return true
	}
}

// commands lists the REPL commands for completion
var commands = []string{"/help", "/reset", "/steps", "/tools", "/config", "/history", "/exit"}

func newCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		if c == "/history" {
			items = append(items, readline.PcItem(c, readline.PcItem("clear")))
			continue
		}
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

// printHelp prints help information
func printHelp(w io.Writer) {
	fmt.Fprintf(w, `
%s📚 AI Football Chatbot Help%s

%sBuilt-in Commands:%s
  /help           - Show this help message
  /reset          - Start a new conversation
  /steps          - Show the tools used for the last answer
  /tools          - List available tools and their input format
  /config         - Show current configuration
  /history        - Show history usage tips
  /history clear  - Clear command history
  /exit           - Exit program

%sInput Tips:%s
  • Use Up/Down arrow keys to browse command history
  • Use Tab to complete commands
  • End line with \ for multi-line input
  • Press Enter twice to submit in multi-line mode
  • Press Ctrl+C to cancel current input

%sExamples:%s
  "What were the last 5 results of PSG?"
  "Show me the latest Ligue 1 scores."
  "What is the Premier League table?"
  "Will it be windy in Marseille this week?"

`, colorCyan, colorReset, colorYellow, colorReset, colorYellow, colorReset, colorYellow, colorReset)
}

// streamOutput handles stream output
func streamOutput(content string) {
	fmt.Print(content)
}

// toolCallOutput handles tool call output
func toolCallOutput(name string, args map[string]any, result string, err error) {
	input, _ := args[tools.InputParam].(string)
	fmt.Printf("\n%s%s%s\n", colorYellow, stepHeader(name, input), colorReset)

	// Display status
	if err != nil {
		fmt.Printf("%s   Status: ❌ Failed - %v%s\n", colorRed, err, colorReset)
	} else {
		fmt.Printf("%s   Status: ✅ Done%s\n", colorGreen, colorReset)
	}
}
