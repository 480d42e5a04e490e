// Package pipeline contains the message processing stages of the service.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// NotificationRequestTransformer decodes a raw Pub/Sub payload into a
// notification.NotificationRequest. The type's own UnmarshalJSON validates
// the recipient URN.
//
// Malformed payloads are returned with skip=true so the StreamingService
// can Nack them towards the dead letter topic.
func NotificationRequestTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notification.NotificationRequest, bool, error) {
	var req notification.NotificationRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return nil, true, fmt.Errorf("failed to unmarshal notification request from message %s: %w", msg.ID, err)
	}
	return &req, false, nil
}
