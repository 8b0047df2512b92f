package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/agerating/internal/poller"
	"github.com/kiranshivaraju/agerating/internal/ratingapi"
	"github.com/kiranshivaraju/agerating/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- scripted fetcher ---

type step struct {
	job *models.AnalysisJob
	err error
}

type scriptedFetcher struct {
	mu    sync.Mutex
	steps []step
	calls []time.Time
}

func (f *scriptedFetcher) Result(_ context.Context, taskID string) (*models.AnalysisJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	if len(f.steps) == 0 {
		return &models.AnalysisJob{TaskID: taskID, Status: models.JobStatusPending}, nil
	}
	s := f.steps[0]
	f.steps = f.steps[1:]
	return s.job, s.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pending() step {
	return step{job: &models.AnalysisJob{Status: models.JobStatusPending}}
}

func succeeded(r *models.AnalysisResult) step {
	return step{job: &models.AnalysisJob{Status: models.JobStatusSuccess, Result: r}}
}

func failed(msg string) step {
	return step{job: &models.AnalysisJob{Status: models.JobStatusFailed, Error: msg}}
}

func fastConfig() poller.Config {
	return poller.Config{Interval: 5 * time.Millisecond, MaxWait: 2 * time.Second, MaxFailures: 2}
}

// --- tests ---

func TestWait_PendingPendingSuccess(t *testing.T) {
	want := &models.AnalysisResult{AgeCategory: "PG-13"}
	f := &scriptedFetcher{steps: []step{pending(), pending(), succeeded(want)}}

	got, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 3, f.callCount())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, f.callCount(), "polling must stop after success")
}

func TestWait_FirstRequestAfterOneInterval(t *testing.T) {
	f := &scriptedFetcher{steps: []step{succeeded(&models.AnalysisResult{})}}
	cfg := fastConfig()
	cfg.Interval = 40 * time.Millisecond

	start := time.Now()
	_, err := poller.New(f, cfg).Wait(context.Background(), "abc", nil)
	require.NoError(t, err)

	require.Len(t, f.calls, 1)
	assert.GreaterOrEqual(t, f.calls[0].Sub(start), cfg.Interval)
}

func TestWait_Failed(t *testing.T) {
	f := &scriptedFetcher{steps: []step{pending(), failed("bad format")}}

	got, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	assert.Nil(t, got)
	require.ErrorIs(t, err, poller.ErrAnalysisFailed)

	var ae *poller.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "bad format", ae.Message)
	assert.Equal(t, "abc", ae.TaskID)
}

func TestWait_UnknownStatusKeepsPolling(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{job: &models.AnalysisJob{Status: models.JobStatusInProgress}},
		{job: &models.AnalysisJob{Status: "STARTED"}},
		succeeded(&models.AnalysisResult{AgeCategory: "0+"}),
	}}

	got, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "0+", got.AgeCategory)
}

func TestWait_TransientErrorsRecover(t *testing.T) {
	boom := errors.New("connection reset")
	f := &scriptedFetcher{steps: []step{
		{err: boom}, {err: boom}, pending(), {err: boom}, {err: boom},
		succeeded(&models.AnalysisResult{}),
	}}

	_, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	require.NoError(t, err, "failure count resets after a good answer")
}

func TestWait_TooManyFailures(t *testing.T) {
	boom := errors.New("connection refused")
	f := &scriptedFetcher{steps: []step{{err: boom}, {err: boom}, {err: boom}, succeeded(&models.AnalysisResult{})}}

	_, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	require.ErrorIs(t, err, poller.ErrPollTimeout)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 3, f.callCount())
}

func TestWait_SuccessWithoutResultIsMalformed(t *testing.T) {
	f := &scriptedFetcher{steps: []step{succeeded(nil), succeeded(nil), succeeded(nil)}}

	_, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", nil)
	require.ErrorIs(t, err, poller.ErrPollTimeout)
	assert.Contains(t, err.Error(), ratingapi.ErrMalformedResponse.Error())
}

func TestWait_MaxWaitExceeded(t *testing.T) {
	f := &scriptedFetcher{}
	cfg := fastConfig()
	cfg.MaxWait = 50 * time.Millisecond

	start := time.Now()
	_, err := poller.New(f, cfg).Wait(context.Background(), "abc", nil)
	require.ErrorIs(t, err, poller.ErrPollTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Greater(t, f.callCount(), 1)
}

// stuckFetcher never answers; it returns only when the request context ends.
type stuckFetcher struct{}

func (stuckFetcher) Result(ctx context.Context, _ string) (*models.AnalysisJob, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWait_MaxWaitBoundsRequestInFlight(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxWait = 50 * time.Millisecond

	start := time.Now()
	_, err := poller.New(stuckFetcher{}, cfg).Wait(context.Background(), "abc", nil)
	require.ErrorIs(t, err, poller.ErrPollTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWait_MaxWaitShorterThanInterval(t *testing.T) {
	f := &scriptedFetcher{}
	cfg := fastConfig()
	cfg.Interval = time.Second
	cfg.MaxWait = 20 * time.Millisecond

	_, err := poller.New(f, cfg).Wait(context.Background(), "abc", nil)
	require.ErrorIs(t, err, poller.ErrPollTimeout)
	assert.Equal(t, 0, f.callCount())
}

func TestWait_ContextCanceled(t *testing.T) {
	f := &scriptedFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := poller.New(f, fastConfig()).Wait(ctx, "abc", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, poller.ErrPollTimeout)
}

func TestWait_CanceledBeforeFirstRequest(t *testing.T) {
	f := &scriptedFetcher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := poller.New(f, fastConfig()).Wait(ctx, "abc", nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.callCount())
}

func TestWait_Progress(t *testing.T) {
	f := &scriptedFetcher{steps: []step{pending(), succeeded(&models.AnalysisResult{})}}

	var seen []models.JobStatus
	_, err := poller.New(f, fastConfig()).Wait(context.Background(), "abc", func(attempt int, s models.JobStatus) {
		assert.Equal(t, len(seen)+1, attempt)
		seen = append(seen, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []models.JobStatus{models.JobStatusPending, models.JobStatusSuccess}, seen)
}
