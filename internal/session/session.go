package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kiranshivaraju/agerating/internal/poller"
	"github.com/kiranshivaraju/agerating/pkg/models"
)

var (
	ErrUploadFailed   = errors.New("upload failed")
	ErrNoFileSelected = errors.New("no file selected")
	ErrSuperseded     = errors.New("superseded by a newer upload")
)

// Submitter uploads a file and returns the remote task id.
type Submitter interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
}

// Waiter polls a task until it resolves.
type Waiter interface {
	Wait(ctx context.Context, taskID string, progress poller.Progress) (*models.AnalysisResult, error)
}

// Notifier shows a notice to the user. Implementations must return promptly.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Source is a file the user picked.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource returns a Source reading path from disk.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Session drives uploads and polling against a single state slot.
// It is safe for concurrent use; a new Submit supersedes any attempt still running.
type Session struct {
	submitter Submitter
	waiter    Waiter
	notifier  Notifier
	onChange  func(State)

	mu     sync.Mutex
	state  State
	source *Source
	cancel context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets where notices go.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithOnChange registers a callback that receives every committed state, in order.
// It runs with the session lock held and must not call back into the Session.
func WithOnChange(fn func(State)) Option {
	return func(s *Session) { s.onChange = fn }
}

// New creates a Session in the idle phase.
func New(sub Submitter, w Waiter, opts ...Option) *Session {
	s := &Session{
		submitter: sub,
		waiter:    w,
		state:     State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select picks the file used by the next Submit.
func (s *Session) Select(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = &src
	s.commitLocked(FileSelected{Name: src.Name})
}

// Toggle expands category, or collapses it if it is already expanded.
func (s *Session) Toggle(category string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(CategoryToggled{Category: category})
	return s.state
}

// Submit uploads the selected file and polls until the job resolves.
// Any attempt still running is cancelled and its later events are ignored.
// Returns ErrSuperseded if a newer attempt replaced this one before it finished.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoFileSelected
	}
	src := *s.source
	ctx, gen, cancel := s.beginLocked(ctx, src.Name)
	s.mu.Unlock()
	defer cancel()

	log := slog.With("generation", gen, "file", src.Name)

	taskID, err := s.upload(ctx, src)
	if err != nil {
		if !s.isCurrent(gen) {
			return ErrSuperseded
		}
		if ctx.Err() != nil {
			log.Info("upload canceled", "error", err)
			return s.finish(gen, PollFailed{Generation: gen, Kind: NoticeCanceled, Message: ctx.Err().Error()}, ctx.Err())
		}
		err = fmt.Errorf("%w: %w", ErrUploadFailed, err)
		log.Error("upload failed", "error", err)
		return s.finish(gen, SubmitFailed{Generation: gen, Message: err.Error()}, err)
	}
	log.Info("upload accepted", "task_id", taskID)

	return s.poll(ctx, gen, taskID, log)
}

// Track polls a task that was uploaded earlier, skipping the upload step.
// It supersedes any running attempt exactly like Submit.
func (s *Session) Track(ctx context.Context, taskID string) error {
	s.mu.Lock()
	ctx, gen, cancel := s.beginLocked(ctx, "")
	s.mu.Unlock()
	defer cancel()

	return s.poll(ctx, gen, taskID, slog.With("generation", gen))
}

// beginLocked cancels the running attempt and starts a new generation.
func (s *Session) beginLocked(ctx context.Context, file string) (context.Context, uint64, context.CancelFunc) {
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	gen := s.state.Generation + 1
	s.commitLocked(SubmitStarted{Generation: gen, File: file})
	return ctx, gen, cancel
}

func (s *Session) poll(ctx context.Context, gen uint64, taskID string, log *slog.Logger) error {
	log = log.With("task_id", taskID)
	if !s.apply(gen, JobAccepted{Generation: gen, TaskID: taskID}) {
		return ErrSuperseded
	}

	result, err := s.waiter.Wait(ctx, taskID, func(attempt int, status models.JobStatus) {
		s.apply(gen, PollTicked{Generation: gen, Attempt: attempt, Status: status})
	})
	if err != nil {
		if !s.isCurrent(gen) {
			return ErrSuperseded
		}
		kind, msg := NoticePollTimeout, err.Error()
		var ae *poller.AnalysisError
		switch {
		case errors.As(err, &ae):
			kind, msg = NoticeAnalysisFailed, ae.Message
		case ctx.Err() != nil:
			kind = NoticeCanceled
		}
		log.Error("analysis did not resolve", "error", err)
		return s.finish(gen, PollFailed{Generation: gen, Kind: kind, Message: msg}, err)
	}

	if !s.apply(gen, PollSucceeded{Generation: gen, Result: result}) {
		log.Info("discarding result of superseded attempt")
		return ErrSuperseded
	}
	log.Info("analysis resolved", "age_category", result.AgeCategory)
	return nil
}

func (s *Session) upload(ctx context.Context, src Source) (string, error) {
	f, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src.Name, err)
	}
	defer f.Close()
	return s.submitter.Upload(ctx, src.Name, f)
}

// finish commits a terminal failure and notifies, unless the attempt was superseded.
func (s *Session) finish(gen uint64, ev Event, err error) error {
	s.mu.Lock()
	if !current(s.state, gen) {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.commitLocked(ev)
	notice := s.state.Notice
	s.mu.Unlock()

	if s.notifier != nil && notice != nil {
		s.notifier.Notify(*notice)
	}
	return err
}

// apply commits ev if attempt gen still owns the state.
func (s *Session) apply(gen uint64, ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !current(s.state, gen) {
		return false
	}
	s.commitLocked(ev)
	return true
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return current(s.state, gen)
}

func (s *Session) commitLocked(ev Event) {
	s.state = Reduce(s.state, ev)
	if s.onChange != nil {
		s.onChange(s.state)
	}
}
