package session

// Reduce returns the state that follows s after ev. It never mutates s.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case FileSelected:
		s.Selected = e.Name
		return s

	case SubmitStarted:
		if e.Generation <= s.Generation {
			return s
		}
		// The previous result stays on screen until it is replaced or an error clears it.
		return State{
			Phase:      PhaseSubmitting,
			Generation: e.Generation,
			Selected:   s.Selected,
			File:       e.File,
			InFlight:   true,
			Result:     s.Result,
			Open:       s.Open,
		}

	case JobAccepted:
		if !current(s, e.Generation) || s.Phase != PhaseSubmitting {
			return s
		}
		s.Phase = PhasePolling
		s.TaskID = e.TaskID
		return s

	case PollTicked:
		if !current(s, e.Generation) || s.Phase != PhasePolling {
			return s
		}
		s.Attempts = e.Attempt
		return s

	case PollSucceeded:
		if !current(s, e.Generation) {
			return s
		}
		s.Phase = PhaseResolved
		s.InFlight = false
		s.Result = e.Result
		s.Notice = nil
		return s

	case SubmitFailed:
		if !current(s, e.Generation) {
			return s
		}
		return failed(s, NoticeUploadFailed, e.Message)

	case PollFailed:
		if !current(s, e.Generation) {
			return s
		}
		return failed(s, e.Kind, e.Message)

	case CategoryToggled:
		s.Open = s.Open.Toggle(e.Category)
		return s
	}
	return s
}

// current reports whether an attempt event still owns the state.
// Terminal events for an attempt that already finished are dropped too,
// so InFlight is cleared exactly once per attempt.
func current(s State, gen uint64) bool {
	return s.InFlight && s.Generation == gen
}

func failed(s State, kind NoticeKind, msg string) State {
	s.Phase = PhaseFailed
	s.InFlight = false
	s.Result = nil
	s.Notice = &Notice{Kind: kind, Message: msg}
	return s
}
