package papareo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// TranscribeLarge uploads a large recording and starts an asynchronous
// transcription task, returning its id. The audio stream is read fully,
// once. The returned id becomes the client's in-flight task; at most one
// task is monitored per client instance.
func (c *Client) TranscribeLarge(ctx context.Context, audio io.Reader) (string, error) {
	body, contentType, err := audioForm(audio, nil)
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transcribe/large", contentType, body)
	if err != nil {
		return "", err
	}

	resp, err := c.do("transcribe/large", req)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", respError("transcribe/large", ErrSubmissionFailed, resp)
	}

	var result struct {
		TaskID string `json:"task_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode submission response: %w", err)
	}
	if result.TaskID == "" {
		return "", fieldError("transcribe/large", ErrSubmissionFailed, "task_id")
	}

	c.setCurrentTask(result.TaskID)

	return result.TaskID, nil
}

// TranscribeLargeStatus checks the status of a transcription task. It
// performs a single request with no waiting.
func (c *Client) TranscribeLargeStatus(ctx context.Context, taskID string) (TaskStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/transcribe/large/"+taskID+"/status", "", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do("transcribe/large/status", req)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", respError("transcribe/large/status", ErrStatusCheckFailed, resp)
	}

	var result struct {
		Status TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	if result.Status == "" {
		return "", fieldError("transcribe/large/status", ErrStatusCheckFailed, "status")
	}

	return result.Status, nil
}

// AwaitCompletion polls the task's status every pollInterval until it leaves
// {PENDING, STARTED}, maxAttempts status checks have been made (zero means
// unbounded), or ctx is done. It returns the first terminal status observed;
// exhausting the attempt budget returns the last observed status with a nil
// error, leaving the caller to cancel or keep waiting. A failed status check
// stops the loop and propagates; it is never retried.
//
// When taskID is the client's in-flight task and Cancel clears it while the
// loop is waiting, the loop stops within one interval and returns
// StatusCancelled.
func (c *Client) AwaitCompletion(ctx context.Context, taskID string, pollInterval time.Duration, maxAttempts int) (TaskStatus, error) {
	// Cancellation is only observable for the task this client submitted;
	// tasks polled on behalf of another client are driven purely by the
	// attempt budget and ctx.
	return c.await(ctx, taskID, pollInterval, maxAttempts, c.monitoring(taskID))
}

func (c *Client) await(ctx context.Context, taskID string, pollInterval time.Duration, maxAttempts int, tracked bool) (TaskStatus, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	status, err := c.TranscribeLargeStatus(ctx, taskID)
	if err != nil {
		return "", err
	}

	for attempt := 1; !status.Terminal(); attempt++ {
		if tracked && !c.monitoring(taskID) {
			return StatusCancelled, nil
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return status, nil
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		if tracked && !c.monitoring(taskID) {
			return StatusCancelled, nil
		}

		status, err = c.TranscribeLargeStatus(ctx, taskID)
		if err != nil {
			return "", err
		}
	}

	return status, nil
}

// TranscribeLargeCancel asks the service to abort a transcription task and
// returns the service's message. Unlike Cancel it does not touch the
// in-flight task id and surfaces any failure to the caller.
func (c *Client) TranscribeLargeCancel(ctx context.Context, taskID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/transcribe/large/"+taskID+"/cancel", "", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do("transcribe/large/cancel", req)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", respError("transcribe/large/cancel", ErrCancelFailed, resp)
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode cancel response: %w", err)
	}
	if result.Message == "" {
		return "", fieldError("transcribe/large/cancel", ErrCancelFailed, "message")
	}

	return result.Message, nil
}

// Cancel aborts the task currently being monitored, if any. The in-flight
// task id is cleared first so a concurrent AwaitCompletion stops within one
// poll interval; the remote cancel request is best effort and its failure is
// ignored. Calling Cancel with no task in flight is a no-op.
func (c *Client) Cancel(ctx context.Context) {
	taskID := c.takeCurrentTask()
	if taskID == "" {
		return
	}
	// Best effort: local state is already cleared, the service will revoke
	// the task on its side or let it run to completion unobserved.
	_, _ = c.TranscribeLargeCancel(ctx, taskID)
}

// TranscribeLargeDownload retrieves the WebVTT transcript of a finished
// task. The caller must close the returned stream. The service rejects
// downloads for tasks that have not succeeded; that rejection surfaces as
// ErrDownloadFailed, this method performs no status check of its own.
func (c *Client) TranscribeLargeDownload(ctx context.Context, taskID string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/transcribe/large/"+taskID+"/download", "", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("transcribe/large/download", req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode > http.StatusOK {
		defer drainAndClose(resp.Body)
		return nil, respError("transcribe/large/download", ErrDownloadFailed, resp)
	}

	return resp.Body, nil
}

// TranscribeRecording transcribes a local audio file end to end: upload,
// poll until the task settles, download the transcript into a temporary
// .vtt file, and return that file's path. The file is fully written and
// closed before returning; deleting it is the caller's responsibility.
//
// Polling uses the config's PollInterval and MaxPollAttempts. If Cancel is
// called while the task is being monitored, TranscribeRecording returns
// ErrCancelled.
func (c *Client) TranscribeRecording(ctx context.Context, path string) (string, error) {
	audio, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open recording: %w", err)
	}
	defer audio.Close()

	taskID, err := c.TranscribeLarge(ctx, audio)
	if err != nil {
		return "", err
	}

	status, err := c.await(ctx, taskID, c.cfg.PollInterval, c.cfg.MaxPollAttempts, true)
	if err != nil {
		return "", err
	}
	// Re-check the in-flight cell after the loop: a Cancel landing while a
	// status poll was in flight surfaces as a server-reported REVOKED, not
	// as the StatusCancelled sentinel.
	if status == StatusCancelled || !c.monitoring(taskID) {
		return "", ErrCancelled
	}
	c.clearCurrentTask(taskID)

	stream, err := c.TranscribeLargeDownload(ctx, taskID)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	vtt, err := os.CreateTemp("", filepath.Base(path)+"-*.vtt")
	if err != nil {
		return "", fmt.Errorf("failed to create transcript file: %w", err)
	}
	if _, err := io.Copy(vtt, stream); err != nil {
		vtt.Close()
		os.Remove(vtt.Name())
		return "", fmt.Errorf("failed to write transcript file: %w", err)
	}
	if err := vtt.Close(); err != nil {
		os.Remove(vtt.Name())
		return "", fmt.Errorf("failed to close transcript file: %w", err)
	}

	return vtt.Name(), nil
}
