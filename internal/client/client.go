// AngelaMos | 2026
// client.go

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/forum-api/internal/core"
)

const (
	defaultTimeout = 15 * time.Second
	quotaCode      = "QUOTA_EXCEEDED"
	maxErrorBody   = 64 << 10
)

// Client speaks JSON over HTTPS to the forum API with the session's bearer
// token. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, gen := c.session.credentials()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode >= http.StatusBadRequest {
		return c.failure(op, gen, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &TransientError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransientError{Op: op, Status: resp.StatusCode, Err: err}
	}

	return nil
}

func (c *Client) failure(op string, gen uint64, resp *http.Response) error {
	var env envelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // best effort
	_ = json.Unmarshal(raw, &env)                                 //nolint:errcheck // body may not be JSON

	var code, message string
	if env.Error != nil {
		code, message = env.Error.Code, env.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.session.invalidateIf(gen)
		return fmt.Errorf("%s: %w", op, ErrAuthExpired)
	case code == quotaCode:
		return fmt.Errorf("%s: %w", op, ErrQuotaExceeded)
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %s: %w", op, message, ErrForbidden)
	}

	return &TransientError{
		Op:      op,
		Status:  resp.StatusCode,
		Code:    code,
		Message: message,
	}
}

// IsTransient reports whether err is a recoverable request failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
