package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// #region config

// HTTPConfig holds connection settings for the chat-completions service.
type HTTPConfig struct {
	BaseURL     string        // e.g. https://api.openai.com
	APIKey      string        // bearer credential, required
	Model       string        // model identifier
	Timeout     time.Duration // per-call timeout
	MaxAttempts int           // total attempts per call, including the first
	BaseDelay   time.Duration // backoff start, doubled each retry
}

// DefaultHTTPConfig returns connection defaults for the hosted service.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BaseURL:     "https://api.openai.com",
		Model:       "gpt-4o",
		Timeout:     60 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
	}
}

// #endregion config

// #region wire-types

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	Seed           int             `json:"seed,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// #endregion wire-types

// #region client-struct

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	config     HTTPConfig
	httpClient *http.Client
}

// NewHTTPClient creates a client for the given service configuration.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultHTTPConfig().Timeout
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultHTTPConfig().BaseDelay
	}
	return &HTTPClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// #endregion client-struct

// #region complete

// Complete posts one chat request, retrying transient failures with
// exponential backoff up to MaxAttempts. Non-transient HTTP errors fail fast.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(c.buildChatRequest(req))
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	delay := c.config.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("[INFER] retry %d/%d after %v: %v", attempt, c.config.MaxAttempts, delay, lastErr)
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, transient, err := c.post(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !transient {
			return Response{}, err
		}
		lastErr = err
	}

	return Response{}, fmt.Errorf("completion failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

// post performs one HTTP round trip. The second return reports whether the
// failure is transient and worth retrying.
func (c *HTTPClient) post(ctx context.Context, body []byte) (Response, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost,
		c.config.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, false, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures and timeouts are transient unless the parent
		// context is gone.
		if ctx.Err() != nil {
			return Response{}, false, ctx.Err()
		}
		return Response{}, true, fmt.Errorf("post: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, true, fmt.Errorf("read body: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		transient := httpResp.StatusCode == http.StatusTooManyRequests ||
			httpResp.StatusCode >= 500
		return Response{}, transient, fmt.Errorf("service returned %d: %s",
			httpResp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Response{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, false, fmt.Errorf("response contained no choices")
	}

	return Response{Text: parsed.Choices[0].Message.Content}, false, nil
}

// #endregion complete

// #region helpers

func (c *HTTPClient) buildChatRequest(req Request) chatRequest {
	out := chatRequest{
		Model:       c.config.Model,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	}
	if req.System != "" {
		out.Messages = append(out.Messages, chatMessage{Role: "system", Content: req.System})
	}
	out.Messages = append(out.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.JSONOnly {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion helpers
