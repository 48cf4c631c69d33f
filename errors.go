package papareo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrSubmissionFailed means the service did not accept an upload, or its
	// response carried no task id.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrStatusCheckFailed means a status request failed or its response
	// carried no status field.
	ErrStatusCheckFailed = errors.New("status check failed")
	// ErrCancelFailed means a cancel request failed.
	ErrCancelFailed = errors.New("cancel failed")
	// ErrDownloadFailed means the transcript could not be retrieved, e.g.
	// because the task has not succeeded yet.
	ErrDownloadFailed = errors.New("download failed")
	// ErrTranscribeFailed means a short transcription request failed.
	ErrTranscribeFailed = errors.New("transcribe failed")

	// ErrCancelled is returned by TranscribeRecording when Cancel aborted
	// the workflow.
	ErrCancelled = errors.New("transcription cancelled")
)

// APIError is a non-success response from the Papa Reo service. It unwraps to
// one of the operation sentinels above so callers can match with errors.Is.
type APIError struct {
	// Op is the operation that failed, e.g. "transcribe/large".
	Op string
	// StatusCode is the HTTP status of the response, or zero when the
	// response was well-formed HTTP but semantically invalid.
	StatusCode int
	// Detail is the server's structured error detail when present, or a
	// summary of the raw body.
	Detail string

	err error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("papareo: %s: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("papareo: %s: status %d: %s", e.Op, e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.err
}

const maxErrorBody = 4 << 10

// respError builds an *APIError for a non-success response. The caller owns
// resp.Body.
func respError(op string, sentinel error, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(body, resp.Status),
		err:        sentinel,
	}
}

// fieldError builds an *APIError for a 2xx response whose body is missing an
// expected field.
func fieldError(op string, sentinel error, field string) error {
	return &APIError{
		Op:     op,
		Detail: fmt.Sprintf("response missing %q field", field),
		err:    sentinel,
	}
}

// errorDetail extracts the "detail" field of a structured error body, falling
// back to the raw body, then to the HTTP status line.
func errorDetail(body []byte, status string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}

	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}
