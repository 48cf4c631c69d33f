package papareo

// TaskStatus is the state of a large-audio transcription task as reported by
// the /status endpoint, taken verbatim from the response.
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusStarted TaskStatus = "STARTED"
	StatusSuccess TaskStatus = "SUCCESS"
	StatusRevoked TaskStatus = "REVOKED"

	// StatusCancelled is a local sentinel returned by AwaitCompletion when
	// the in-flight task was cleared by Cancel. The server never reports it;
	// a server-side cancellation shows up as StatusRevoked.
	StatusCancelled TaskStatus = "CANCELLED"
)

// Terminal reports whether no further state change is expected without a new
// submission. Statuses outside the known set are treated as terminal but
// unrecognized.
func (s TaskStatus) Terminal() bool {
	return s != StatusPending && s != StatusStarted
}
