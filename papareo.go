// Package papareo is a client for the Papa Reo speech recognition web API
// (https://api.papareo.io/docs) published by Te Hiku Media.
//
// Short recordings are transcribed synchronously with Transcribe or
// TranscribeUtterance. Large recordings go through the asynchronous task
// workflow: TranscribeLarge to submit, TranscribeLargeStatus / AwaitCompletion
// to poll, TranscribeLargeDownload to fetch the WebVTT transcript once the
// task succeeds. TranscribeRecording drives the whole workflow for a local
// audio file, and Cancel aborts the task currently being monitored.
package papareo

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultURL is the base URL of the Papa Reo API.
const DefaultURL = "https://api.papareo.io/tuhi"

// Version is the client version reported in the User-Agent header.
const Version = "0.1.0"

// TokenEnvVar is the environment variable consulted for the API token when
// the config does not carry one.
const TokenEnvVar = "PAPAREO_TOKEN"

// DefaultPollInterval is the delay between status checks when the config
// does not specify one.
const DefaultPollInterval = time.Second

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// URL is the base URL of the API. Defaults to DefaultURL.
	URL string `yaml:"url"`
	// Token is the API access token. When empty, the PAPAREO_TOKEN
	// environment variable is consulted at construction time.
	Token string `yaml:"token"`
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent"`

	// PollInterval is the delay between status checks in
	// TranscribeRecording. Defaults to DefaultPollInterval.
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxPollAttempts bounds the number of status checks in
	// TranscribeRecording. Zero means unbounded.
	MaxPollAttempts int `yaml:"max_poll_attempts"`
}

type Client struct {
	httpClient HTTPClient
	cfg        *Config

	url       string
	userAgent string

	mu    sync.Mutex
	token string
	// currentTaskID is the task being monitored by this client instance.
	// Set by TranscribeLarge, cleared by Cancel and by TranscribeRecording
	// once the task reaches a terminal status.
	currentTaskID string
}

func New(httpClient HTTPClient, cfg *Config) *Client {
	token := cfg.Token
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}

	url := cfg.URL
	if url == "" {
		url = DefaultURL
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = fmt.Sprintf("papareo-go/%s", Version)
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		url:        url,
		userAgent:  userAgent,
		token:      token,
	}
}

// SetToken replaces the API access token. Blank tokens are ignored so an
// unset flag or config value never clobbers a previously resolved token.
func (c *Client) SetToken(token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// HasToken reports whether an access token has been resolved. There is no
// getter for the token itself.
func (c *Client) HasToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// CurrentTaskID returns the id of the task currently being monitored, or ""
// when none is in flight.
func (c *Client) CurrentTaskID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTaskID
}

func (c *Client) setCurrentTask(taskID string) {
	c.mu.Lock()
	c.currentTaskID = taskID
	c.mu.Unlock()
}

// takeCurrentTask clears the in-flight task id and returns what it was.
func (c *Client) takeCurrentTask() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	taskID := c.currentTaskID
	c.currentTaskID = ""
	return taskID
}

// clearCurrentTask clears the in-flight id only if it still refers to taskID.
func (c *Client) clearCurrentTask(taskID string) {
	c.mu.Lock()
	if c.currentTaskID == taskID {
		c.currentTaskID = ""
	}
	c.mu.Unlock()
}

func (c *Client) monitoring(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTaskID == taskID
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
