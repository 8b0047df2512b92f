// Package poller waits for a remote analysis job to reach a terminal state.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/kiranshivaraju/agerating/internal/ratingapi"
	"github.com/kiranshivaraju/agerating/pkg/models"
)

var (
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrPollTimeout    = errors.New("poll timeout")

	errStillRunning = errors.New("job still running")
)

// AnalysisError is returned when the job reaches the failed state.
// Message is the text the service reported, unmodified.
type AnalysisError struct {
	TaskID  string
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed: %s", e.Message)
}

func (e *AnalysisError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// Fetcher reads one job snapshot. ratingapi.Client satisfies it.
type Fetcher interface {
	Result(ctx context.Context, taskID string) (*models.AnalysisJob, error)
}

// Config bounds a poll loop.
type Config struct {
	Interval    time.Duration
	MaxWait     time.Duration
	MaxFailures int
}

// Progress is called after every answered status request. attempt starts at 1.
type Progress func(attempt int, status models.JobStatus)

// Poller polls GET /result/{task_id} at a fixed interval until the job resolves.
type Poller struct {
	fetcher Fetcher
	cfg     Config
}

// New creates a Poller. Interval and MaxWait must be positive.
func New(f Fetcher, cfg Config) *Poller {
	return &Poller{fetcher: f, cfg: cfg}
}

// Wait blocks until taskID succeeds, fails, or the loop gives up.
// The first request goes out one interval after the call, then one interval apart.
// MaxWait bounds the whole call, including a request still in flight when it passes.
// Cancelling ctx stops the loop and returns the context error. progress may be nil.
func (p *Poller) Wait(ctx context.Context, taskID string, progress Progress) (*models.AnalysisResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.MaxWait)
	defer cancel()
	b := retry.WithMaxDuration(p.cfg.MaxWait, retry.NewConstant(p.cfg.Interval))

	var (
		result   *models.AnalysisResult
		attempt  int
		failures int
	)
	err := sleep(waitCtx, p.cfg.Interval)
	if err == nil {
		err = retry.Do(waitCtx, b, func(ctx context.Context) error {
			attempt++
			job, err := p.fetcher.Result(ctx, taskID)
			if err == nil && job.Status == models.JobStatusSuccess && job.Result == nil {
				err = fmt.Errorf("%w: success without result", ratingapi.ErrMalformedResponse)
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failures++
				slog.Warn("poll request failed", "task_id", taskID, "attempt", attempt, "failures", failures, "error", err)
				if failures > p.cfg.MaxFailures {
					return fmt.Errorf("%w: task %s: %d consecutive failed requests: %w", ErrPollTimeout, taskID, failures, err)
				}
				return retry.RetryableError(err)
			}
			failures = 0

			if progress != nil {
				progress(attempt, job.Status)
			}

			if !job.Status.IsTerminal() {
				slog.Debug("job not finished", "task_id", taskID, "attempt", attempt, "status", job.Status)
				return retry.RetryableError(errStillRunning)
			}
			if job.Status == models.JobStatusFailed {
				return &AnalysisError{TaskID: taskID, Message: job.Error}
			}
			result = job.Result
			return nil
		})
	}

	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, ErrAnalysisFailed), errors.Is(err, ErrPollTimeout):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: task %s unresolved after %s: %w", ErrPollTimeout, taskID, p.cfg.MaxWait, err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
