// Package stubservice is a scripted stand-in for the age-rating analysis service.
// It speaks the same two endpoints and replays a fixed script for every upload;
// it performs no analysis.
package stubservice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/kiranshivaraju/agerating/pkg/models"
)

const maxUploadBytes = 32 << 20

// Script is what every uploaded task replays: PendingPolls pending answers,
// then InProgressPolls in_progress answers, then failed with FailWith if set,
// otherwise success with Result. A Result with only Raw set reproduces the
// service's pass-through of worker output that was not JSON.
type Script struct {
	PendingPolls    int                   `yaml:"pending_polls"`
	InProgressPolls int                   `yaml:"in_progress_polls"`
	FailWith        string                `yaml:"fail_with"`
	Result          models.AnalysisResult `yaml:"result"`
}

// LoadScript reads a Script from a YAML fixture.
func LoadScript(path string) (Script, error) {
	var sc Script
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("reading fixture: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return sc, nil
}

type task struct {
	filename string
	size     int64
	polls    int
}

// Service holds the tasks created by uploads. Safe for concurrent use.
type Service struct {
	script Script
	newID  func() string

	mu    sync.Mutex
	tasks map[string]*task
}

// Option configures a Service.
type Option func(*Service)

// WithIDs replaces uuid task ids, for deterministic tests.
// fn is called with the service lock held, so it need not be safe for concurrent use.
func WithIDs(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates a Service replaying sc.
func New(sc Script, opts ...Option) *Service {
	s := &Service{
		script: sc,
		newID:  func() string { return uuid.NewString() },
		tasks:  make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router serving POST /upload and GET /result/{taskID}.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(recovery)

	r.Post("/upload", s.upload)
	r.Get("/result/{taskID}", s.result)

	return r
}

func (s *Service) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		writeDetail(w, http.StatusUnprocessableEntity, "file field is required")
		return
	}
	if err != nil {
		slog.Warn("failed to read uploaded file", "error", err)
		writeDetail(w, http.StatusBadRequest, "Cannot read uploaded file")
		return
	}
	defer f.Close()

	// Empty files are accepted; the worker decides what to make of them.
	n, err := io.Copy(io.Discard, f)
	if err != nil {
		slog.Warn("failed to read uploaded file", "filename", hdr.Filename, "error", err)
		writeDetail(w, http.StatusBadRequest, "Cannot read uploaded file")
		return
	}

	s.mu.Lock()
	id := s.newID()
	s.tasks[id] = &task{filename: hdr.Filename, size: n}
	s.mu.Unlock()

	slog.Info("task created", "task_id", id, "filename", hdr.Filename, "bytes", n)
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id})
}

func (s *Service) result(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskID")

	var polls int
	s.mu.Lock()
	t, ok := s.tasks[id]
	if ok {
		t.polls++
		polls = t.polls
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}

	resp := resultResponse{AnalysisJob: models.AnalysisJob{Status: models.JobStatusPending}}
	job := &resp.AnalysisJob
	switch {
	case polls <= s.script.PendingPolls:
	case polls <= s.script.PendingPolls+s.script.InProgressPolls:
		job.Status = models.JobStatusInProgress
		resp.Meta = map[string]any{"filename": t.filename, "bytes": t.size}
	case s.script.FailWith != "":
		job.Status = models.JobStatusFailed
		job.Error = s.script.FailWith
	default:
		result := s.script.Result
		job.Status = models.JobStatusSuccess
		job.Result = &result
	}
	writeJSON(w, http.StatusOK, resp)
}

// resultResponse adds the progress metadata the service reports for in_progress jobs.
type resultResponse struct {
	models.AnalysisJob
	Meta map[string]any `json:"meta,omitempty"`
}

// Polls returns how many status requests taskID has received.
func (s *Service) Polls(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[taskID]; ok {
		return t.polls
	}
	return 0
}
