// Package models contains the data shapes exchanged with the age-rating analysis service.
package models

// JobStatus is the state of a remote analysis job as reported by GET /result/{task_id}.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusSuccess    JobStatus = "success"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether polling should stop on this status.
// Unknown statuses (raw worker states such as STARTED or RETRY) are not terminal.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

func (s JobStatus) String() string {
	return string(s)
}

// AnalysisJob is one snapshot of a remote analysis job. The service owns every transition;
// the client only reads snapshots while polling and forgets the job once polling stops.
// Result is set only when Status is success, Error only when Status is failed.
type AnalysisJob struct {
	TaskID string          `json:"task_id,omitempty"`
	Status JobStatus       `json:"status"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
