// Package listonic is a thin client for the listonic REST API.
package listonic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/SwissDataScienceCenter/listonic-bridge/internal/bridgeerrors"
	"github.com/SwissDataScienceCenter/listonic-bridge/internal/config"
)

const maxErrorBodyLength int = 512

// SessionProvider hands out the headers of an authenticated listonic session.
type SessionProvider interface {
	Headers(ctx context.Context) (http.Header, error)
	Invalidate(accessToken string)
}

// Result is the decoded body of a successful call, empty when listonic did not answer with JSON.
type Result struct {
	Data json.RawMessage
}

func (r Result) Empty() bool {
	return len(r.Data) == 0
}

// Decode unmarshals the result into output, an empty result leaves output untouched.
func (r Result) Decode(output any) error {
	if r.Empty() {
		return nil
	}
	return json.Unmarshal(r.Data, output)
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Empty() {
		return []byte("{}"), nil
	}
	return r.Data, nil
}

type Client struct {
	baseURL *url.URL
	session SessionProvider
	// newHTTPClient returns the client used for a single call, every call opens a new connection
	newHTTPClient func() *http.Client
}

type ClientOption func(*Client) error

func WithListonicConfig(listonicConfig config.ListonicConfig) ClientOption {
	return func(c *Client) error {
		if listonicConfig.BaseURL == nil {
			return fmt.Errorf("the listonic base url is not set")
		}
		c.baseURL = listonicConfig.BaseURL
		return nil
	}
}

func WithSession(session SessionProvider) ClientOption {
	return func(c *Client) error {
		c.session = session
		return nil
	}
}

func WithHTTPClientFactory(factory func() *http.Client) ClientOption {
	return func(c *Client) error {
		c.newHTTPClient = factory
		return nil
	}
}

func NewClient(options ...ClientOption) (*Client, error) {
	c := Client{}
	for _, opt := range options {
		err := opt(&c)
		if err != nil {
			return &Client{}, err
		}
	}
	if c.baseURL == nil {
		return &Client{}, fmt.Errorf("the listonic config is not provided")
	}
	if c.session == nil {
		return &Client{}, fmt.Errorf("the session is not initialized")
	}
	if c.newHTTPClient == nil {
		c.newHTTPClient = func() *http.Client {
			return &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		}
	}
	return &c, nil
}

// do performs exactly one authenticated request, no retries.
func (c *Client) do(
	ctx context.Context,
	operation string,
	method string,
	path string,
	body any,
	accepted ...int,
) (Result, error) {
	headers, err := c.session.Headers(ctx)
	if err != nil {
		return Result{}, err
	}
	var reqBody io.Reader
	if body != nil {
		rawBody, err := json.Marshal(body)
		if err != nil {
			return Result{}, err
		}
		reqBody = bytes.NewReader(rawBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reqBody)
	if err != nil {
		return Result{}, err
	}
	req.Header = headers

	slog.Debug("LISTONIC CLIENT", "message", "calling listonic", "operation", operation, "method", method, "path", path)
	res, err := c.newHTTPClient().Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", operation, err)
	}
	defer res.Body.Close()

	if !isAccepted(res.StatusCode, accepted) {
		rawBody, _ := io.ReadAll(io.LimitReader(res.Body, int64(maxErrorBodyLength)))
		if res.StatusCode == http.StatusUnauthorized {
			c.session.Invalidate(strings.TrimPrefix(headers.Get("Authorization"), "Bearer "))
		}
		slog.Error(
			"LISTONIC CLIENT",
			"message",
			"listonic call failed",
			"operation",
			operation,
			"status",
			res.StatusCode,
		)
		return Result{}, &bridgeerrors.OperationError{Operation: operation, Status: res.StatusCode, Body: string(rawBody)}
	}
	if !strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		return Result{}, nil
	}
	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", operation, err)
	}
	if !json.Valid(rawBody) {
		return Result{}, fmt.Errorf("%s: listonic returned invalid JSON", operation)
	}
	return Result{Data: rawBody}, nil
}

func isAccepted(status int, accepted []int) bool {
	for _, s := range accepted {
		if s == status {
			return true
		}
	}
	return false
}
