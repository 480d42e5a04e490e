// Package gcm is a client for the Google Cloud Messaging HTTP send endpoint.
//
// A Client submits one message to one registration id and classifies the
// service's answer into an Outcome. It never retries and never batches; the
// classified outcome tells the caller what to do next.
package gcm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultSendURL is the production GCM send endpoint.
const DefaultSendURL = "https://android.googleapis.com/gcm/send"

const defaultTimeout = 10 * time.Second

// Doer is the transport the client posts through. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the client's immutable settings.
type Config struct {
	APIKey   string
	Endpoint string
	// Timeout applies to the default http.Client only.
	Timeout time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default transport.
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithRegistry replaces the default error code registry. The client keeps
// its own copy.
func WithRegistry(registry Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// Client is safe for concurrent use.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient Doer
	registry   Registry
	classifier *Classifier
	logger     *slog.Logger
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gcm: api key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultSendURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		registry:   DefaultRegistry(),
		logger:     logger.With("component", "GCMClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.classifier = NewClassifier(c.registry, logger)
	return c, nil
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Submit sends req and returns its classified outcome. The error is only
// set when no outcome could be produced: an invalid request, a transport
// failure (including ctx cancellation) or an undecodable body.
func (c *Client) Submit(ctx context.Context, req SendRequest) (Outcome, error) {
	body, err := EncodePayload(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gcm: create request: %w", err)
	}
	httpReq.Header = BuildHeaders(c.apiKey, req.Headers)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gcm: transport failed: %w", err)
	}
	if resp.Body != nil {
		defer func() {
			// Drain so the transport can reuse the connection.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
	}

	outcome, err := c.classifier.Classify(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("GCM response classified", "status", resp.StatusCode, "outcome", Describe(outcome))
	return outcome, nil
}

// Send is Submit folded into a single error: nil on Success, otherwise the
// *ReplaceRegistrationID or *Error outcome, or the Submit error.
func (c *Client) Send(ctx context.Context, req SendRequest) error {
	outcome, err := c.Submit(ctx, req)
	if err != nil {
		return err
	}
	switch o := outcome.(type) {
	case Success:
		return nil
	case *ReplaceRegistrationID:
		return o
	case *Error:
		return o
	default:
		return fmt.Errorf("gcm: unexpected outcome %T", outcome)
	}
}

// Describe returns a short stable label for an outcome, suitable for logs
// and metric labels.
func Describe(o Outcome) string {
	switch v := o.(type) {
	case Success:
		return "success"
	case *ReplaceRegistrationID:
		return "replace_registration_id"
	case *Error:
		return v.Kind.String()
	default:
		return "unknown"
	}
}
