// Package support talks to the external support endpoint that answers
// chat queries.
package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/zhouzirui/laptop-support/internal/config"
	"github.com/zhouzirui/laptop-support/internal/logging"
)

// Path is where the endpoint accepts queries, relative to the base URL.
const Path = "/support"

const maxReplyBytes = 1 << 20

var (
	ErrUnexpectedStatus = errors.New("support endpoint returned non-success status")
	ErrMalformedReply   = errors.New("support endpoint returned malformed reply")
)

// Request is the payload posted to the endpoint.
type Request struct {
	Context string `json:"context"`
	Query   string `json:"query"`
}

// Reply carries the two fields read from a successful response.
type Reply struct {
	Response string `json:"response"`
	Context  string `json:"context"`
}

type wireReply struct {
	Response *string `json:"response"`
	Context  *string `json:"context"`
}

// Client posts queries to the support endpoint. It never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(l)
	}
}

// NewClient creates a client for the endpoint rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := config.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + Path,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the full URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask posts req and returns the endpoint's reply. Transport errors,
// non-2xx statuses and replies without string "response" and "context"
// fields all produce an error.
func (c *Client) Ask(ctx context.Context, req Request) (Reply, error) {
	body, err := sonic.Marshal(req)
	if err != nil {
		return Reply{}, fmt.Errorf("encode support request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("build support request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Reply{}, fmt.Errorf("post support request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("read support reply: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	reply, err := decodeReply(raw)
	if err != nil {
		return Reply{}, err
	}

	c.logger.Debug("support reply received",
		zap.String("context", req.Context),
		zap.String("replyContext", reply.Context),
		zap.Int("length", len(reply.Response)))
	return reply, nil
}

func decodeReply(raw []byte) (Reply, error) {
	var wire wireReply
	if err := sonic.Unmarshal(raw, &wire); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if wire.Response == nil {
		return Reply{}, fmt.Errorf("%w: missing response field", ErrMalformedReply)
	}
	if wire.Context == nil || *wire.Context == "" {
		return Reply{}, fmt.Errorf("%w: missing context field", ErrMalformedReply)
	}
	return Reply{Response: *wire.Response, Context: *wire.Context}, nil
}
