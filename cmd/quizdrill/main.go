// Package main provides the CLI entrypoint for quizdrill.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quizdrill/internal/config"
	"quizdrill/internal/model"
	"quizdrill/internal/pacer"
	"quizdrill/internal/session"
	"quizdrill/internal/stats"
	"quizdrill/internal/statsui"
	"quizdrill/internal/store"
	"quizdrill/internal/trivia"
	"quizdrill/internal/tui"
)

const (
	defaultSessionLimit = 25
	defaultCountdown    = 5.0
	defaultPerMinute    = 15
	defaultPerHour      = 250
	defaultPerDay       = 500
	defaultTimeoutSec   = 15
	defaultCurveWindow  = 5
)

const apiKeyEnv = "QUIZDRILL_API_KEY"

var (
	practiceTopic     string
	practiceLimit     int
	practiceCountdown float64
	practicePerMinute int
	practicePerHour   int
	practicePerDay    int
	practiceAPIURL    string
	practiceTimeout   int

	statsTopic string
	statsSince string
	statsLast  int
	statsPlain bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quizdrill",
		Short:         "TUI quiz practice",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceTopic, "topic", "", "topic to practice")
	rootCmd.Flags().IntVar(&practiceLimit, "limit", defaultSessionLimit, "questions per session")
	rootCmd.Flags().Float64Var(&practiceCountdown, "countdown", defaultCountdown, "seconds before auto-advancing after an answer")
	rootCmd.Flags().IntVar(&practicePerMinute, "per-minute", defaultPerMinute, "max question requests per minute")
	rootCmd.Flags().IntVar(&practicePerHour, "per-hour", defaultPerHour, "max question requests per hour")
	rootCmd.Flags().IntVar(&practicePerDay, "per-day", defaultPerDay, "max question requests per day")
	rootCmd.Flags().StringVar(&practiceAPIURL, "api-url", "", "question API endpoint")
	rootCmd.Flags().IntVar(&practiceTimeout, "timeout", defaultTimeoutSec, "question request timeout in seconds")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	loadEnv()

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "topic", &practiceTopic, fileCfg.Practice.Topic)
	applyIntConfig(cmd, "limit", &practiceLimit, fileCfg.Practice.SessionLimit)
	applyFloatConfig(cmd, "countdown", &practiceCountdown, fileCfg.Practice.CountdownSeconds)
	applyIntConfig(cmd, "per-minute", &practicePerMinute, fileCfg.Limits.PerMinute)
	applyIntConfig(cmd, "per-hour", &practicePerHour, fileCfg.Limits.PerHour)
	applyIntConfig(cmd, "per-day", &practicePerDay, fileCfg.Limits.PerDay)
	applyStringConfig(cmd, "api-url", &practiceAPIURL, fileCfg.API.BaseURL)
	applyIntConfig(cmd, "timeout", &practiceTimeout, fileCfg.API.TimeoutSeconds)

	cfg := model.Config{
		Topic:            practiceTopic,
		SessionLimit:     practiceLimit,
		CountdownSeconds: practiceCountdown,
		PerMinute:        practicePerMinute,
		PerHour:          practicePerHour,
		PerDay:           practicePerDay,
		APIBaseURL:       practiceAPIURL,
		APIKey:           os.Getenv(apiKeyEnv),
		RequestTimeout:   time.Duration(practiceTimeout) * time.Second,
	}

	if err := validateConfig(cfg); err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	client := trivia.NewClient(
		trivia.WithBaseURL(cfg.APIBaseURL),
		trivia.WithAPIKey(cfg.APIKey),
	)
	pace := pacer.New(pacer.Config{
		PerMinute: cfg.PerMinute,
		PerHour:   cfg.PerHour,
		PerDay:    cfg.PerDay,
	})
	ctrl := session.New(pace, cfg.SessionLimit, cfg.CountdownSeconds)

	model := tui.NewModel(cfg, ctrl, st, client.GetQuestion)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session history",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsTopic, "topic", "", "topic filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print the report instead of the interactive browser")
	return cmd
}

func runStatsCmd(_ *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	cfg := model.StatsConfig{
		Topic: statsTopic,
		Since: sinceTime,
		Last:  statsLast,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		sessions, err := st.ListSessions(context.Background(), cfg)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		if err := stats.RenderSummary(os.Stdout, sessions, defaultCurveWindow); err != nil {
			return err
		}
		return stats.RenderSessionTable(os.Stdout, sessions)
	}

	model := statsui.NewModel(st, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// loadEnv picks up QUIZDRILL_API_KEY from a local or per-user .env file.
// A missing file is fine; the variable may already be exported.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}
	if err := godotenv.Load(config.DefaultEnvPath()); err != nil {
		_ = err
	}
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# quizdrill configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# topic = ""              # Default topic offered at startup
# session-limit = %d      # Questions per session
# countdown = %.1f        # Seconds before auto-advancing after an answer

[limits]
# per-minute = %d         # Max question requests per minute
# per-hour = %d          # Max question requests per hour
# per-day = %d           # Max question requests per day

[api]
# base-url = ""           # Question API endpoint
# timeout = %d            # Request timeout in seconds
`,
		defaultSessionLimit,
		defaultCountdown,
		defaultPerMinute,
		defaultPerHour,
		defaultPerDay,
		defaultTimeoutSec,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.SessionLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	if cfg.CountdownSeconds <= 0 {
		return fmt.Errorf("--countdown must be > 0")
	}
	if cfg.PerMinute <= 0 || cfg.PerHour <= 0 || cfg.PerDay <= 0 {
		return fmt.Errorf("request caps must be > 0")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
