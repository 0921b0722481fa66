// Package api wraps outbound calls to the wallet backend. It attaches
// the current bearer token, normalises every failure to one error
// shape and fires a logout hook on authentication failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const maxBodySize = 8 << 20

// TokenSource returns the current bearer token, empty when anonymous.
// The session store owns the token; the client only reads a snapshot
// at call time.
type TokenSource func() string

// Client issues authenticated JSON requests against the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
	log        *logrus.Logger

	// onUnauthorized runs once per 401 response, before the error is
	// returned. The session store wires its credential wipe here.
	onUnauthorized func()
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	Token          TokenSource
	Timeout        time.Duration
	Logger         *logrus.Logger
	OnUnauthorized func()
}

// NewClient creates a Client for the given backend.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        cfg.BaseURL,
		token:          token,
		log:            log,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// SetUnauthorizedHook replaces the 401 hook. Used by the session store,
// which is constructed after the client.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// SetTokenSource replaces the token source. Used by the session store,
// which is constructed after the client.
func (c *Client) SetTokenSource(src TokenSource) {
	c.token = src
}

// Do executes a request and decodes the JSON response into out when
// out is non-nil. Any non-2xx status yields a *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Debug("transport failure")
		return normalizeError(0, nil, err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return normalizeError(resp.StatusCode, nil, "failed to read response")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.WithField("path", path).Info("unauthorized, clearing session")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return normalizeError(resp.StatusCode, payload, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("request rejected")
		return normalizeError(resp.StatusCode, payload, "")
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with an optional JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}
