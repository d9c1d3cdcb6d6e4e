// Package client talks to the chatbot backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/domain"
	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/usecase"
)

const (
	DefaultTimeout  = 20 * time.Second
	defaultPoolSize = 4
	maxErrorBody    = 512
)

// FallbackReply is what callers show when a call fails.
const FallbackReply = chat.FallbackReply

// ErrUnauthorized is returned for 401 and 403 responses. It is not transient.
var ErrUnauthorized = domain.ErrUnauthorized

// StatusError is any other non-2xx response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Path, e.Code, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

var _ usecase.ChatService = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = NewPooledHTTPClient(defaultPoolSize, d) }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("component", "chat_client").Logger() }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    NewPooledHTTPClient(defaultPoolSize, DefaultTimeout),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Interact(ctx context.Context, req model.InteractionRequest) (string, error) {
	return c.post(ctx, "/interact", req)
}

func (c *Client) SendFeedback(ctx context.Context, req model.FeedbackRequest) (string, error) {
	return c.post(ctx, "/feedback", req)
}

func (c *Client) SendSession(ctx context.Context, report model.SessionReport) (string, error) {
	return c.post(ctx, "/session", report)
}

// Health does not need the API key but sends it anyway.
func (c *Client) Health(ctx context.Context) (model.HealthStatus, error) {
	var hs model.HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, &hs)
	return hs, err
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	var resp model.ChatResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		c.log.Warn().Str("path", path).Msg("backend reported an unsuccessful reply")
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	c.log.Debug().Str("method", method).Str("path", path).Int("status", res.StatusCode).
		Dur("latency", time.Since(start)).Msg("chat_service_call")

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("%s: %w", path, ErrUnauthorized)
	case res.StatusCode < 200 || res.StatusCode > 299:
		b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &StatusError{Path: path, Code: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
