package dispatch

import (
	"context"
	"fmt"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// Dispatcher sends one notification to each of a user's GCM registration ids.
type Dispatcher interface {
	// Dispatch returns a report even when it also returns an error, so the
	// caller can heal the token store before the message is retried.
	Dispatch(ctx context.Context, registrationIDs []string, content notification.NotificationContent, data map[string]string) (Report, error)
}

// Replacement is a canonical id the service asked us to store instead of Old.
type Replacement struct {
	Old string
	New string
}

// Report summarises one Dispatch call.
type Report struct {
	Delivered int
	// Invalid ids are no longer registered with GCM and should be dropped.
	Invalid  []string
	Replaced []Replacement
	// Failed counts every send that was not delivered, including Invalid.
	Failed int
}

// Receipt is a compact log string.
func (r Report) Receipt() string {
	return fmt.Sprintf("success:%d invalid:%d replaced:%d total_fail:%d",
		r.Delivered, len(r.Invalid), len(r.Replaced), r.Failed)
}

// TokenStore remembers which GCM registration ids belong to a user.
type TokenStore interface {
	// Register is an upsert.
	Register(ctx context.Context, user urn.URN, registrationID string) error
	Unregister(ctx context.Context, user urn.URN, registrationID string) error
	// Replace swaps oldID for newID atomically where the backend allows it.
	Replace(ctx context.Context, user urn.URN, oldID, newID string) error
	Fetch(ctx context.Context, user urn.URN) ([]string, error)
}
