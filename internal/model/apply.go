package model

import "fmt"

// ApplyOutcome is the terminal state of one application attempt. The
// no-button outcomes are expected states of the page, not errors.
type ApplyOutcome int

const (
	OutcomeSubmitted ApplyOutcome = iota
	OutcomeNoApplyButton
	OutcomeNoSubmitButton
	OutcomeTimedOut
	OutcomeFailed
)

func (o ApplyOutcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeNoApplyButton:
		return "no apply button"
	case OutcomeNoSubmitButton:
		return "no submit button"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// ApplyResult pairs an outcome with the underlying error for the failure
// outcomes. Err is nil for Submitted and the no-button outcomes.
type ApplyResult struct {
	Outcome ApplyOutcome
	Err     error
}

// Submitted reports whether the application actually went through.
func (r ApplyResult) Submitted() bool { return r.Outcome == OutcomeSubmitted }
