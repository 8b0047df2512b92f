// Package session holds the client's UI state and drives one upload-and-poll flow at a time.
//
// State is an immutable value changed only by Reduce. Every event produced by an upload
// attempt carries the generation of that attempt, so events from an attempt that was
// superseded by a newer upload are dropped instead of overwriting the newer state.
package session

import (
	"github.com/kiranshivaraju/agerating/pkg/models"
)

// Phase is the position in the Idle → Submitting → Polling → Resolved|Failed flow.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhasePolling    Phase = "polling"
	PhaseResolved   Phase = "resolved"
	PhaseFailed     Phase = "failed"
)

// NoticeKind classifies a user-visible error.
type NoticeKind string

const (
	NoticeUploadFailed   NoticeKind = "upload_failed"
	NoticeAnalysisFailed NoticeKind = "analysis_failed"
	NoticePollTimeout    NoticeKind = "poll_timeout"
	NoticeCanceled       NoticeKind = "canceled"
)

// Notice is a user-visible error message.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Accordion is the expanded category panel: none, or exactly one category.
// The zero value is none.
type Accordion struct {
	category string
	open     bool
}

// Closed returns an accordion with no panel open.
func Closed() Accordion { return Accordion{} }

// OpenAt returns an accordion with only category open.
func OpenAt(category string) Accordion { return Accordion{category: category, open: true} }

// Category returns the open category, if any.
func (a Accordion) Category() (string, bool) { return a.category, a.open }

// IsOpen reports whether category is the open panel.
func (a Accordion) IsOpen(category string) bool { return a.open && a.category == category }

// Toggle closes category if it is open; otherwise opens it, closing any other panel.
func (a Accordion) Toggle(category string) Accordion {
	if a.IsOpen(category) {
		return Closed()
	}
	return OpenAt(category)
}

// State is one snapshot of the client UI.
type State struct {
	Phase      Phase
	Generation uint64
	Selected   string // file picked for the next upload
	File       string // file of the current or last upload
	TaskID     string
	InFlight   bool
	Attempts   int
	Result     *models.AnalysisResult
	Open       Accordion
	Notice     *Notice
}
