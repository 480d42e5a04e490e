package pipeline

import (
	"context"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-gcm-service/internal/metrics"
	"github.com/tinywideclouds/go-gcm-service/pkg/dispatch"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// NewProcessor creates the stage that looks up a recipient's registration
// ids, dispatches to them and applies GCM's feedback to the token store.
func NewProcessor(
	dispatcher dispatch.Dispatcher,
	tokenStore dispatch.TokenStore,
	m *metrics.Metrics,
	logger *slog.Logger,
) messagepipeline.StreamProcessor[notification.NotificationRequest] {

	return func(ctx context.Context, original messagepipeline.Message, request *notification.NotificationRequest) error {
		procLogger := logger.With(
			"recipient_id", request.RecipientID.String(),
			"pubsub_msg_id", original.ID,
		)

		registrationIDs, err := tokenStore.Fetch(ctx, request.RecipientID)
		if err != nil {
			procLogger.Error("Failed to fetch registration ids", "err", err)
			return err
		}
		if len(registrationIDs) == 0 {
			procLogger.Info("No devices registered for user; dropping notification.")
			return nil
		}

		report, err := dispatcher.Dispatch(ctx, registrationIDs, request.Content, request.DataPayload)

		// Self-healing runs before the error check so a redelivered message
		// does not hit the same dead ids again.
		if len(report.Invalid) > 0 {
			procLogger.Info("Cleaning up invalid registration ids", "count", len(report.Invalid))
			for _, id := range report.Invalid {
				if err := tokenStore.Unregister(ctx, request.RecipientID, id); err != nil {
					procLogger.Warn("Failed to delete registration id", "registration_id", id, "err", err)
					continue
				}
				m.ObserveHealed("unregister")
			}
		}
		if len(report.Replaced) > 0 {
			procLogger.Info("Replacing registration ids with canonical ids", "count", len(report.Replaced))
			for _, r := range report.Replaced {
				if err := tokenStore.Replace(ctx, request.RecipientID, r.Old, r.New); err != nil {
					procLogger.Warn("Failed to replace registration id", "old", r.Old, "new", r.New, "err", err)
					continue
				}
				m.ObserveHealed("replace")
			}
		}

		if err != nil {
			procLogger.Error("GCM Dispatch failed", "err", err, "receipt", report.Receipt())
			return err // Retryable
		}
		procLogger.Info("GCM Dispatched", "receipt", report.Receipt())
		return nil
	}
}
