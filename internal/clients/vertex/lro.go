package vertex

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kimhyeog/forge/internal/models"
)

const (
	lroPollInterval = 10 * time.Second
	lroMaxWait      = 600 * time.Second
)

// videoRequestBody builds the :predictLongRunning request payload.
func videoRequestBody(prompt string, imageBytes []byte, mimeType string, opts *models.VideoOptions) map[string]any {
	instance := map[string]any{"prompt": prompt}
	if len(imageBytes) > 0 {
		instance["image"] = map[string]any{
			"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageBytes),
			"mimeType":           mimeType,
		}
	}

	params := map[string]any{"sampleCount": 1}
	if opts != nil {
		if opts.DurationSeconds != nil {
			params["durationSeconds"] = *opts.DurationSeconds
		}
		if opts.AspectRatio != "" {
			params["aspectRatio"] = opts.AspectRatio
		}
		if opts.NegativePrompt != "" {
			params["negativePrompt"] = opts.NegativePrompt
		}
		if opts.Seed != nil {
			params["seed"] = *opts.Seed
		}
		if opts.GenerateAudio != nil {
			params["generateAudio"] = *opts.GenerateAudio
		}
		if opts.Resolution != "" {
			params["resolution"] = opts.Resolution
		}
	}

	return map[string]any{
		"instances":  []any{instance},
		"parameters": params,
	}
}

// modelURL builds the Vertex publisher-model endpoint for a verb.
func (c *Client) modelURL(model, verb string) string {
	return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL, c.project, c.region, model, verb)
}

// postJSON posts a JSON body and returns (statusCode, responseBody).
func (c *Client) postJSON(ctx context.Context, url string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// startVideoOperation posts to :predictLongRunning and returns the opaque
// operation name. HTTP 429 and >=500 are retried; other non-200 responses
// are terminal after safety inspection.
func (c *Client) startVideoOperation(ctx context.Context, model string, body map[string]any) (string, error) {
	url := c.modelURL(model, "predictLongRunning")

	var opName string
	err := withRetry(ctx, videoStartMaxAttempts, videoStartBackoff, func() error {
		status, data, err := c.postJSON(ctx, url, body)
		if err != nil {
			return &RetryableError{Err: err}
		}

		switch {
		case status == http.StatusOK:
		case status == http.StatusTooManyRequests:
			return &RetryableError{Err: fmt.Errorf("rate limit exceeded: %s", data)}
		case status >= 500:
			return &RetryableError{Err: fmt.Errorf("server error %d: %s", status, data)}
		default:
			if isSafetyText(string(data)) {
				return &SafetyError{Reason: string(data)}
			}
			return fmt.Errorf("client error %d: %s", status, data)
		}

		var parsed struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil || parsed.Name == "" {
			return fmt.Errorf("operation start returned no operation name")
		}
		opName = parsed.Name
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("model", model).Str("operation", opName).Msg("Video operation started")
	return opName, nil
}

// pollVideoOperation posts to :fetchPredictOperation every poll interval
// until done, a terminal error, or the wall-clock budget expires.
func (c *Client) pollVideoOperation(ctx context.Context, model, opName string) (map[string]any, error) {
	url := c.modelURL(model, "fetchPredictOperation")
	deadline := time.Now().Add(lroMaxWait)

	for {
		if time.Now().After(deadline) {
			return nil, &TimeoutError{Operation: opName}
		}

		status, data, err := c.postJSON(ctx, url, map[string]any{"operationName": opName})
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("operation poll failed with %d: %s", status, data)
		}

		var parsed struct {
			Done     bool            `json:"done"`
			Error    map[string]any  `json:"error"`
			Response json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode operation state: %w", err)
		}

		if len(parsed.Error) > 0 {
			msg := fmt.Sprintf("%v", parsed.Error["message"])
			if isSafetyText(msg) {
				return nil, &SafetyError{Reason: msg}
			}
			return nil, fmt.Errorf("video operation failed: %s", msg)
		}

		if parsed.Done {
			envelope := map[string]any{}
			if len(parsed.Response) > 0 {
				if err := json.Unmarshal(parsed.Response, &envelope); err != nil {
					return nil, fmt.Errorf("failed to decode operation response: %w", err)
				}
			}
			return envelope, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lroPollInterval):
		}
	}
}
