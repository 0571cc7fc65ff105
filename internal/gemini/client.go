// Package gemini is the gateway to the external generative model. It supplies
// document analysis, OCR extraction, risk scoring and chat completions over the
// Generative Language REST API. Every call retries with bounded exponential
// backoff and degrades to ErrUnavailable so callers can substitute safe
// defaults instead of failing a claim submission.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrUnavailable is returned when the model cannot be reached or is not configured.
var ErrUnavailable = errors.New("gemini unavailable")

// Config wires all data required to contact the API.
type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client talks to the Generative Language API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	maxRetries uint64
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether the client has enough configuration to make calls.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.endpoint != "" && c.model != ""
}

// ---- wire types ----

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generate posts a single-turn request and returns the model's text reply.
func (c *Client) generate(ctx context.Context, systemPrompt string, parts []part) (string, error) {
	return c.generateConversation(ctx, systemPrompt, []content{{Role: "user", Parts: parts}})
}

// generateConversation posts a multi-turn request and returns the model's text reply.
func (c *Client) generateConversation(ctx context.Context, systemPrompt string, contents []content) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("client not configured: %w", ErrUnavailable)
	}

	req := generateRequest{Contents: contents}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)

	var text string
	operation := func() error {
		var opErr error
		text, opErr = c.post(ctx, url, body)
		return opErr
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Warn("gemini call failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("gemini returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
		// Client errors won't heal on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty candidate response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// ---- model output parsing ----

var jsonFence = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")

// extractJSON pulls a JSON object out of a model reply, handling fenced blocks
// and bare objects surrounded by prose.
func extractJSON(text string) ([]byte, bool) {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return []byte(m[1]), true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return []byte(text[start : end+1]), true
	}
	return nil, false
}
