// Package gcm adapts the GCM HTTP client to the service's Dispatcher contract.
package gcm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tinywideclouds/go-gcm-service/internal/metrics"
	"github.com/tinywideclouds/go-gcm-service/pkg/dispatch"
	gcmapi "github.com/tinywideclouds/go-gcm-service/pkg/gcm"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// Sender is the subset of *gcmapi.Client we use, so tests can mock it.
type Sender interface {
	Send(ctx context.Context, req gcmapi.SendRequest) error
}

// Options tune every send made by a Dispatcher.
type Options struct {
	DryRun  bool
	Headers map[string]string
	// RatePerSecond <= 0 disables outbound limiting.
	RatePerSecond float64
	Burst         int
}

type Dispatcher struct {
	client  Sender
	opts    Options
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher accepts the concrete client but stores it as the interface.
// m may be nil.
func NewDispatcher(client Sender, opts Options, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return &Dispatcher{
		client:  client,
		opts:    opts,
		limiter: limiter,
		metrics: m,
		logger:  logger.With("component", "GCMDispatcher"),
	}
}

// Dispatch sends one request per registration id. GCM's answer for each id
// decides where it lands in the report; retryable failures (5xx, rate
// exceeded, transport) make Dispatch return an error after the loop so the
// whole message is redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, registrationIDs []string, content notification.NotificationContent, data map[string]string) (dispatch.Report, error) {
	var report dispatch.Report
	if len(registrationIDs) == 0 {
		return report, nil
	}

	logger := d.logger.With("dispatch_id", uuid.NewString())
	payload := buildData(content, data)
	retryable := 0

	for _, id := range registrationIDs {
		if err := d.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("gcm rate limiter: %w", err)
		}

		start := time.Now()
		err := d.client.Send(ctx, gcmapi.SendRequest{
			RegistrationID: id,
			Data:           payload,
			DryRun:         d.opts.DryRun,
			Headers:        d.opts.Headers,
		})
		d.metrics.ObserveSend(outcomeLabel(err), time.Since(start))

		var replace *gcmapi.ReplaceRegistrationID
		switch {
		case err == nil:
			report.Delivered++

		case errors.As(err, &replace):
			// Delivered, but GCM wants the canonical id stored from now on.
			report.Delivered++
			report.Replaced = append(report.Replaced, dispatch.Replacement{Old: id, New: replace.RegistrationID})

		case gcmapi.IsNotRegistered(err) || gcmapi.IsInvalidRegistration(err):
			report.Failed++
			report.Invalid = append(report.Invalid, id)

		case ctx.Err() != nil:
			return report, ctx.Err()

		case isRetryable(err):
			report.Failed++
			retryable++
			logger.Warn("GCM send failed (retryable)", "registration_id", id, "err", err)

		default:
			// MessageTooBig, InvalidParameters, auth problems and the like
			// will not get better on retry.
			report.Failed++
			logger.Error("GCM rejected notification (dropping)", "registration_id", id, "err", err)
		}
	}

	if retryable > 0 {
		return report, fmt.Errorf("batch had %d retryable errors", retryable)
	}
	return report, nil
}

func isRetryable(err error) bool {
	if gcmapi.IsRetryable(err) {
		return true
	}
	// An undecodable 200 may already have been delivered; redelivering
	// would duplicate the notification.
	if errors.Is(err, gcmapi.ErrMalformedResponse) || errors.Is(err, gcmapi.ErrEmptyRegistrationID) {
		return false
	}
	// What is left unclassified is a transport failure.
	_, classified := gcmapi.KindOf(err)
	return !classified
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	var replace *gcmapi.ReplaceRegistrationID
	if errors.As(err, &replace) {
		return "replace_registration_id"
	}
	if kind, ok := gcmapi.KindOf(err); ok {
		return kind.String()
	}
	if errors.Is(err, gcmapi.ErrMalformedResponse) {
		return "malformed_response"
	}
	return "transport_error"
}

// buildData flattens the notification content into the GCM data payload.
// Explicit data keys win over title/body.
func buildData(content notification.NotificationContent, data map[string]string) map[string]string {
	out := make(map[string]string, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out["title"]; !ok && content.Title != "" {
		out["title"] = content.Title
	}
	if _, ok := out["body"]; !ok && content.Body != "" {
		out["body"] = content.Body
	}
	return out
}
