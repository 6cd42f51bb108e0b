package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/niquolic/foot-chatbot/internal/cli"
	"github.com/niquolic/foot-chatbot/internal/config"
	"github.com/niquolic/foot-chatbot/internal/logger"
	"github.com/niquolic/foot-chatbot/internal/tools"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "footbot",
		Short: "AI Football Chatbot - football results and match-day weather",
		Long: `footbot is a conversational assistant for football fans.

It can:
  • Find teams and their latest results or upcoming fixtures
  • Show league results and standings
  • Report the temperature, rain and wind of any city`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()

			// Start CLI
			return cli.Run(cfg)
		},
	}

	// config subcommand
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			fmt.Println(cfg.String())

			path, _ := config.ConfigPath()
			fmt.Printf("\nConfig file path: %s\n", path)
			return nil
		},
	}

	// version subcommand
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("footbot v%s\n", version)
		},
	}

	// tool subcommand: call a tool without the LLM
	toolCmd := &cobra.Command{
		Use:   "tool [name] [input]",
		Short: "List tools, or invoke one with a comma-separated input",
		Example: `  footbot tool
  footbot tool get_city_temperature "48.85, 2.35"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Close()
			return runTool(cmd.Context(), cmd.OutOrStdout(), tools.NewDefaultRegistry(cfg), args)
		},
	}

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(toolCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration and starts the file logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		LogDir:     config.LogDir(),
		Level:      logger.ParseLevel(cfg.Log.Level),
		MaxDays:    cfg.Log.MaxDays,
		ConsoleOut: cfg.Log.ConsoleOut,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logConfigInfo(cfg)
	return cfg, nil
}

// logConfigInfo records the effective configuration, without secrets
func logConfigInfo(cfg *config.Config) {
	logger.Info("footbot v%s starting", version)
	logger.Info("Model: %s (%s), temperature %.1f, max tokens %d",
		cfg.Model.Model, cfg.Model.BaseURL, cfg.Model.Temperature, cfg.Model.MaxTokens)
	logger.Info("Model API key: %s", maskKey(cfg.Model.APIKey))
	logger.Info("Football API: %s, key %s, default competition %s",
		cfg.Football.BaseURL, maskKey(cfg.Football.APIKey), cfg.Football.DefaultCompetition)
	logger.Info("Memory: %s, context %d messages", cfg.Memory.DBPath, cfg.Memory.MaxContextMessages)
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return "****"
	default:
		return key[:4] + "****" + key[len(key)-4:]
	}
}

// runTool lists the registry or invokes a single tool and prints its JSON record
func runTool(ctx context.Context, w io.Writer, registry *tools.Registry, args []string) error {
	if len(args) == 0 {
		for _, t := range registry.List() {
			fmt.Fprintf(w, "%-24s %s\n", t.Name(), t.Description())
		}
		return nil
	}

	name := args[0]
	if _, ok := registry.Get(name); !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := registry.Execute(ctx, name, map[string]any{
		tools.InputParam: strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, result)
	return nil
}
