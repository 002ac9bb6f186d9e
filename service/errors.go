package service

import (
	"errors"
	"fmt"

	"github.com/vultisig/feedback-client/internal/api"
)

var (
	ErrSubmitInProgress = errors.New("a submission is already in progress")
	ErrNotEditing       = errors.New("form is not accepting input")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrClosed           = errors.New("controller is closed")
)

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindSubmission ErrorKind = "submission"
	ErrorKindFetch      ErrorKind = "fetch"
)

// ValidationError is raised locally, before anything reaches the API client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// SubmissionFailure wraps a failed create call with the message shown to the user.
type SubmissionFailure struct {
	Message string
	Err     error
}

func (e *SubmissionFailure) Error() string {
	return fmt.Sprintf("submission failed: %s: %v", e.Message, e.Err)
}

func (e *SubmissionFailure) Unwrap() error {
	return e.Err
}

// InlineError is what the views render: one dismissible message.
type InlineError struct {
	Kind    ErrorKind
	Message string
}

// userMessage prefers the backend provided message and falls back otherwise.
func userMessage(err error, fallback string) string {
	var remote api.RemoteError
	if errors.As(err, &remote) && remote.UserMessage() != "" {
		return remote.UserMessage()
	}
	return fallback
}
