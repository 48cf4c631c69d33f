package papareo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// TranscribeResult is the response of the short-utterance /transcribe
// endpoint.
type TranscribeResult struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	// Metadata carries timing and confidence data when the request asked
	// for it, passed through undecoded.
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// Transcribe sends a short recording to the bilingual /transcribe endpoint.
// The audio stream is read fully, once. withMetadata asks the service for
// alignment and confidence data alongside the transcript.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, withMetadata bool) (*TranscribeResult, error) {
	body, contentType, err := audioForm(audio, map[string]string{
		"with_metadata": strconv.FormatBool(withMetadata),
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transcribe", contentType, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("transcribe", req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, respError("transcribe", ErrTranscribeFailed, resp)
	}

	var result TranscribeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode transcribe response: %w", err)
	}

	return &result, nil
}

// TranscribeUtterance transcribes a short recording and returns just the
// transcript text.
func (c *Client) TranscribeUtterance(ctx context.Context, audio io.Reader) (string, error) {
	result, err := c.Transcribe(ctx, audio, false)
	if err != nil {
		return "", err
	}
	if result.Transcription == "" {
		return "", fieldError("transcribe", ErrTranscribeFailed, "transcription")
	}
	return result.Transcription, nil
}
