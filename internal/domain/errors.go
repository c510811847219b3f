package domain

import "errors"

type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindSubmission  ErrorKind = "submission"
	KindPoll        ErrorKind = "poll"
	KindMaterialize ErrorKind = "materialize"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrSubmission  = errors.New("submission error")
	ErrPoll        = errors.New("poll error")
	ErrMaterialize = errors.New("materialize error")
)

// JobError is the value held in the single error slot of JobState.
type JobError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *JobError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// KindOf maps a wrapped error onto its slot kind.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPoll):
		return KindPoll
	case errors.Is(err, ErrMaterialize):
		return KindMaterialize
	default:
		return KindSubmission
	}
}
