// Package papareotest is an in-process fake of the Papa Reo API for tests
// and local development. It implements the five speech-recognition
// endpoints with scriptable task status progressions.
package papareotest

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dchest/uniuri"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"papareo"
)

// DefaultVTT is the transcript served by the download endpoint unless the
// server is configured otherwise.
const DefaultVTT = "WEBVTT\n\n00:00:00.000 --> 00:00:02.500\nTēnā koe\n\n00:00:02.500 --> 00:00:05.000\nKei te pēhea koe?\n"

// DefaultTranscription is the text returned by the short /transcribe
// endpoint unless the server is configured otherwise.
const DefaultTranscription = "tēnā koe kei te pēhea koe"

type task struct {
	script []papareo.TaskStatus
	step   int
}

// status returns the task's current status without advancing it.
func (t *task) status() papareo.TaskStatus {
	return t.script[t.step]
}

// advance moves the task one step along its script, sticking at the end.
func (t *task) advance() {
	if t.step < len(t.script)-1 {
		t.step++
	}
}

// Server fakes the Papa Reo API. Configure the exported fields before
// serving requests; they must not be changed afterwards.
type Server struct {
	// Token, when non-empty, is required in the Authorization header of
	// every request.
	Token string
	// StatusScript is the status progression of newly submitted tasks: each
	// poll returns the current step and advances, sticking at the last
	// entry. Defaults to PENDING, STARTED, SUCCESS.
	StatusScript []papareo.TaskStatus
	// Transcription is the text returned by the short transcribe endpoint.
	Transcription string
	// VTT is the caption file served by the download endpoint.
	VTT string

	mu          sync.Mutex
	tasks       map[string]*task
	statusCalls int
	cancelCalls int
}

func New() *Server {
	return &Server{
		StatusScript:  []papareo.TaskStatus{papareo.StatusPending, papareo.StatusStarted, papareo.StatusSuccess},
		Transcription: DefaultTranscription,
		VTT:           DefaultVTT,
		tasks:         map[string]*task{},
	}
}

// StatusCalls returns how many status requests the server has answered.
func (s *Server) StatusCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls
}

// CancelCalls returns how many cancel requests the server has answered.
func (s *Server) CancelCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelCalls
}

// Handler returns the fake API as an http.Handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.auth)

	r.Post("/transcribe", s.handleTranscribe)
	r.Post("/transcribe/large", s.handleSubmit)
	r.Get("/transcribe/large/{taskID}/status", s.handleStatus)
	r.Post("/transcribe/large/{taskID}/cancel", s.handleCancel)
	r.Get("/transcribe/large/{taskID}/download", s.handleDownload)

	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Token "+s.Token {
			writeError(w, http.StatusForbidden, "invalid or missing token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if !readAudioFile(w, r) {
		return
	}

	response := map[string]any{
		"success":       true,
		"transcription": s.Transcription,
	}
	if r.FormValue("with_metadata") == "true" {
		response["metadata"] = []map[string]any{
			{"word": "tēnā", "start": 0.0, "end": 0.6, "confidence": 0.97},
			{"word": "koe", "start": 0.6, "end": 1.1, "confidence": 0.95},
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if !readAudioFile(w, r) {
		return
	}

	taskID := uuid.NewString()

	s.mu.Lock()
	s.tasks[taskID] = &task{script: s.StatusScript}
	s.mu.Unlock()

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "unknown task "+taskID)
		return
	}
	s.statusCalls++
	status := t.status()
	t.advance()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]papareo.TaskStatus{"status": status})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "unknown task "+taskID)
		return
	}
	s.cancelCalls++
	t.script = []papareo.TaskStatus{papareo.StatusRevoked}
	t.step = 0
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "task " + taskID + " revoked"})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	s.mu.Lock()
	t, ok := s.tasks[taskID]
	var status papareo.TaskStatus
	if ok {
		status = t.status()
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "unknown task "+taskID)
		return
	}
	if status != papareo.StatusSuccess {
		writeError(w, http.StatusNotFound, "transcription not ready")
		return
	}

	w.Header().Set("Content-Type", "text/vtt")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.VTT))
}

// readAudioFile checks that the request carries an audio_file part, writing
// an error response and returning false when it does not.
func readAudioFile(w http.ResponseWriter, r *http.Request) bool {
	file, _, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "audio_file field required")
		return false
	}
	file.Close()
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError mimics the service's structured error body: a detail message
// plus an opaque reference id.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{
		"detail":    detail,
		"reference": uniuri.New(),
	})
}
