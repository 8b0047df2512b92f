// Package cli wires configuration, the analysis client and the renderer into cobra commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/agerating/internal/config"
	"github.com/kiranshivaraju/agerating/internal/poller"
	"github.com/kiranshivaraju/agerating/internal/ratingapi"
	"github.com/kiranshivaraju/agerating/internal/render"
	"github.com/kiranshivaraju/agerating/internal/session"
)

// app carries the state shared by every subcommand once PersistentPreRunE has run.
type app struct {
	configPath string
	baseURL    string
	logLevel   string

	cfg *config.Config
}

// NewRootCommand creates and returns the root cobra command
func NewRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "agerating",
		Short: "Age rating analyzer client",
		Long: `agerating uploads a script or media file to the age-rating analysis service,
waits for the analysis job to finish and prints the parents-guide checklist.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML configuration file (optional)")
	cmd.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "Analysis service base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newAnalyzeCommand(a),
		newStatusCommand(a),
		newShellCommand(a),
		newStubServerCommand(a),
	)

	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.Service.BaseURL = a.baseURL
	}
	if a.logLevel != "" {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(cfg.Log, cmd.ErrOrStderr()))
	slog.Debug("config loaded", "base_url", cfg.Service.BaseURL, "poll_interval", cfg.Poll.Interval)
	return nil
}

func (a *app) newSession(opts ...session.Option) *session.Session {
	client := ratingapi.NewHTTPClient(a.cfg.Service.BaseURL, a.cfg.Service.Timeout)
	p := poller.New(client, poller.Config{
		Interval:    a.cfg.Poll.Interval,
		MaxWait:     a.cfg.Poll.MaxWait,
		MaxFailures: a.cfg.Poll.MaxFailures,
	})
	return session.New(client, p, opts...)
}

// resolveCategory accepts a configured category name or its 1-based position.
func (a *app) resolveCategory(arg string) (string, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(a.cfg.Categories) {
			return "", fmt.Errorf("category number must be between 1 and %d, got %d", len(a.cfg.Categories), n)
		}
		return a.cfg.Categories[n-1], nil
	}
	for _, c := range a.cfg.Categories {
		if strings.EqualFold(c, arg) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", arg)
}

func newLogger(c config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// outputFlags are shared by every command that prints the checklist.
type outputFlags struct {
	json   bool
	color  bool
	expand string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&o.color, "color", false, "Draw severity swatches with ANSI colors")
	cmd.Flags().StringVarP(&o.expand, "expand", "e", "", "Category (name or number) whose reason is shown")
}

func (o *outputFlags) write(w io.Writer, st session.State, categories []string) error {
	v := render.Build(st, categories)
	if o.json {
		return render.JSON(w, v)
	}
	return render.Text(w, v, render.Options{Color: o.color})
}
