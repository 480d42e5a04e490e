package gcm

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"time"
)

// Response handling follows:
//   - https://developers.google.com/cloud-messaging/http#response
//   - https://developers.google.com/cloud-messaging/http-server-ref#error-codes

type sendResponse struct {
	Failure      int          `json:"failure"`
	CanonicalIDs int          `json:"canonical_ids"`
	Results      []sendResult `json:"results"`
}

// Pointers distinguish an absent field from an empty one.
type sendResult struct {
	MessageID      *string `json:"message_id"`
	RegistrationID *string `json:"registration_id"`
	Error          *string `json:"error"`
}

// Classifier turns a GCM HTTP response into an Outcome. It holds no mutable
// state and may be shared between goroutines.
type Classifier struct {
	registry Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewClassifier creates a classifier over a private copy of registry; later
// edits to the caller's map do not reach it. A nil registry is treated as
// empty: every service code becomes KindUnknownCode.
func NewClassifier(registry Registry, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		registry: maps.Clone(registry),
		logger:   logger.With("component", "GCMClassifier"),
		now:      time.Now,
	}
}

// Classify inspects the status code first and, for 200 only, the JSON body.
// The body is consumed at most once, as JSON or as text, never both.
// A non-nil error means the body could not be read or decoded; it is never
// returned for a status/body combination the protocol defines.
func (c *Classifier) Classify(resp *http.Response) (Outcome, error) {
	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return c.classifyBody(resp.Body)
	case code == http.StatusBadRequest:
		text, err := readText(resp.Body)
		if err != nil {
			return nil, err
		}
		return &Error{Kind: KindBadRequest, Body: text}, nil
	case code == http.StatusUnauthorized:
		return &Error{Kind: KindAuthentication}, nil
	case code >= 500 && code <= 599:
		c.logRetryAfter(code, resp.Header)
		return &Error{Kind: KindInternalServerError, StatusCode: code}, nil
	default:
		return &Error{Kind: KindUnknownHTTPStatus, StatusCode: code}, nil
	}
}

func (c *Classifier) classifyBody(body io.Reader) (Outcome, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var content sendResponse
	if err := json.NewDecoder(body).Decode(&content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if content.Failure == 0 && content.CanonicalIDs == 0 {
		return Success{}, nil
	}

	if len(content.Results) == 0 {
		return nil, fmt.Errorf("%w: failure=%d canonical_ids=%d without results",
			ErrMalformedResponse, content.Failure, content.CanonicalIDs)
	}
	result := content.Results[0]

	if result.MessageID != nil && result.RegistrationID != nil {
		return &ReplaceRegistrationID{RegistrationID: *result.RegistrationID}, nil
	}

	if result.Error == nil {
		return nil, fmt.Errorf("%w: result carries neither a canonical id nor an error", ErrMalformedResponse)
	}
	return c.registry.Lookup(*result.Error), nil
}

// logRetryAfter is advisory only; the client never retries by itself.
func (c *Classifier) logRetryAfter(status int, header http.Header) {
	raw := header.Get("Retry-After")
	if raw == "" {
		return
	}
	attrs := []any{"status", status, "retry_after", raw}
	if delay, ok := ParseRetryAfter(raw, c.now()); ok {
		attrs = append(attrs, "retry_after_delay", delay)
	}
	c.logger.Error("GCM response with Retry-After header", attrs...)
}

func readText(body io.Reader) (string, error) {
	if body == nil {
		return "", nil
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return string(b), nil
}
