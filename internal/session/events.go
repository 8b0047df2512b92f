package session

import "github.com/kiranshivaraju/agerating/pkg/models"

// Event is a discrete input to Reduce.
type Event interface {
	isEvent()
}

// FileSelected records the file chosen for the next upload.
type FileSelected struct {
	Name string
}

// SubmitStarted begins upload attempt Generation for File.
type SubmitStarted struct {
	Generation uint64
	File       string
}

// SubmitFailed ends an attempt whose upload did not yield a task id.
type SubmitFailed struct {
	Generation uint64
	Message    string
}

// JobAccepted moves an attempt to polling.
type JobAccepted struct {
	Generation uint64
	TaskID     string
}

// PollTicked records one answered status request.
type PollTicked struct {
	Generation uint64
	Attempt    int
	Status     models.JobStatus
}

// PollSucceeded ends an attempt with a result.
type PollSucceeded struct {
	Generation uint64
	Result     *models.AnalysisResult
}

// PollFailed ends an attempt whose job failed, whose polling gave up, or whose
// caller went away before it resolved.
type PollFailed struct {
	Generation uint64
	Kind       NoticeKind
	Message    string
}

// CategoryToggled flips the panel for Category.
type CategoryToggled struct {
	Category string
}

func (FileSelected) isEvent()    {}
func (SubmitStarted) isEvent()   {}
func (SubmitFailed) isEvent()    {}
func (JobAccepted) isEvent()     {}
func (PollTicked) isEvent()      {}
func (PollSucceeded) isEvent()   {}
func (PollFailed) isEvent()      {}
func (CategoryToggled) isEvent() {}
