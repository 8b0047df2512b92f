package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/agerating/internal/stubservice"
	"github.com/kiranshivaraju/agerating/pkg/models"
)

const shutdownTimeout = 10 * time.Second

func newStubServerCommand(a *app) *cobra.Command {
	var (
		addr    string
		fixture string
		pending int
		failMsg string
	)
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Serve a scripted stand-in for the analysis service",
		Long: `stub-server answers POST /upload and GET /result/{task_id} like the analysis
service does. Every upload replays the same script: --pending pending answers, then
either a failure (--fail) or the fixture result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := stubservice.Script{Result: sampleResult()}
			if fixture != "" {
				loaded, err := stubservice.LoadScript(fixture)
				if err != nil {
					return err
				}
				sc = loaded
			}
			if cmd.Flags().Changed("pending") {
				sc.PendingPolls = pending
			}
			if failMsg != "" {
				sc.FailWith = failMsg
			}
			if addr == "" {
				addr = a.cfg.Stub.Addr
			}
			return serve(cmd.Context(), addr, stubservice.New(sc).Handler())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML script with pending_polls, fail_with and result")
	cmd.Flags().IntVar(&pending, "pending", 2, "Pending answers before the terminal one")
	cmd.Flags().StringVar(&failMsg, "fail", "", "Fail every task with this message")
	return cmd
}

// serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("stub server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("stub server stopped")
	return nil
}

func sampleResult() models.AnalysisResult {
	return models.AnalysisResult{
		AgeCategory: "PG-13",
		ParentsGuide: map[string]models.GuideEntry{
			"Violence & Gore": {Severity: models.SeverityMild, Reason: "brief fistfight, no blood"},
			"Profanity":       {Severity: models.SeverityModerate, Reason: "occasional strong language"},
		},
	}
}
