package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals a lookup for an id the store does not hold.
var ErrNotFound = errors.New("question not found")

// TransientError marks a failure worth retrying: a timeout or a flaky
// upstream call. The orchestrator retries these with backoff.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure that a retry cannot fix: malformed input or
// a missing prerequisite artifact.
type PermanentError struct {
	Op     string
	Reason string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %s: %s", e.Op, e.Reason)
}

// InvalidStateError is a store contract violation: an update arrived for a
// question whose stage does not allow it.
type InvalidStateError struct {
	QuestionID int64
	Stage      Stage
	Wanted     Stage
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("question %d: stage %s cannot advance to %s", e.QuestionID, e.Stage, e.Wanted)
}

// InvalidScoreError is raised when a quality score leaves [0,1]. Scores are
// never clamped; the violation is surfaced and recorded as a failure.
type InvalidScoreError struct {
	Score float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("quality score %.3f outside [0,1]", e.Score)
}

// IsTransient reports whether any error in the chain is retry-eligible.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
