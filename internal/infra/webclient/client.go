// Package webclient delivers graded submissions to a submission server.
package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

const defaultMaxBodyBytes = 4 * 1024

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, http.StatusText(e.Status), body)
}

type Client struct {
	client       *http.Client
	maxBodyBytes int64
}

type Option func(*Client)

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBodyBytes = n }
}

func New(client *http.Client, opts ...Option) *Client {
	c := &Client{
		client:       client,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.Submitter = (*Client)(nil)

func (c *Client) Submit(ctx context.Context, url string, sub *domain.Submission) error {
	return c.PostJSON(ctx, url, sub)
}

// PostJSON posts v as JSON. Any non-2xx response is a *StatusError carrying
// at most maxBodyBytes of the response body.
func (c *Client) PostJSON(ctx context.Context, url string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return &domain.OpError{
			Op:   "webclient.post",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &domain.OpError{
			Op:   "webclient.post",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.OpError{
			Op:   "webclient.post",
			Kind: domain.KindExecution,
			Err:  err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodyBytes))
		return nil
	}

	body, truncated, _ := readBounded(resp.Body, c.maxBodyBytes)
	msg := string(body)
	if truncated {
		msg += "..."
	}
	return &domain.OpError{
		Op:   "webclient.post",
		Kind: domain.KindExecution,
		Err:  &StatusError{Status: resp.StatusCode, Body: msg},
	}
}

func readBounded(r io.Reader, maxBytes int64) ([]byte, bool, error) {
	lim := io.LimitReader(r, maxBytes+1)
	b, err := io.ReadAll(lim)
	if err != nil {
		return nil, false, err
	}
	if int64(len(b)) > maxBytes {
		return b[:maxBytes], true, nil
	}
	return b, false, nil
}
