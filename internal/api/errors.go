package api

import (
	"fmt"
	"net/http"
)

const (
	defaultSubmitErrorMessage = "Failed to submit feedback"
	fetchErrorMessage         = "Failed to fetch submissions"
)

// RemoteError is satisfied by every error the backend reports with a status code.
type RemoteError interface {
	error
	StatusCode() int
	UserMessage() string
}

// SubmissionError is returned when the backend rejects a create request. Message
// carries the `error` field of the response body.
type SubmissionError struct {
	Status  int
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("fail to submit feedback: %s (%d %s)", e.Message, e.Status, http.StatusText(e.Status))
}

func (e *SubmissionError) StatusCode() int     { return e.Status }
func (e *SubmissionError) UserMessage() string { return e.Message }

// FetchError is returned for any non-2xx answer to a read request. The body is
// never inspected.
type FetchError struct {
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fail to fetch submissions: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *FetchError) StatusCode() int     { return e.Status }
func (e *FetchError) UserMessage() string { return fetchErrorMessage }
