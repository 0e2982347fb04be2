package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrQuotaExceeded        = errors.New("upload quota exceeded")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrExtractionFailed     = errors.New("no text could be extracted")
	ErrInvalidQuestionCount = errors.New("invalid question count")
	ErrGenerationFailed     = errors.New("no questions could be generated")
	ErrNoContent            = errors.New("document has no content")
	ErrNoActiveSession      = errors.New("no active quiz session")
	ErrSessionPending       = errors.New("questions are still being generated")
	ErrNoDocument           = errors.New("no document uploaded")
	ErrQuizInProgress       = errors.New("a quiz is already in progress")
	ErrSuperseded           = errors.New("superseded by a newer upload")
	ErrUnknownQuestion      = errors.New("unknown question")
	ErrDuplicateAnswer      = errors.New("question already answered")
	ErrInvalidOption        = errors.New("option index out of range")
	ErrEmptyResponse        = errors.New("model returned no text")
)

// CountError describes a rejected question count. It matches ErrInvalidQuestionCount.
type CountError struct {
	Raw       string
	Min       int
	Max       int
	NotNumber bool
}

func (e *CountError) Error() string {
	if e.NotNumber {
		return fmt.Sprintf("question count %q is not a number", e.Raw)
	}
	return fmt.Sprintf("question count %s is outside [%d, %d]", e.Raw, e.Min, e.Max)
}

func (e *CountError) Unwrap() error { return ErrInvalidQuestionCount }
