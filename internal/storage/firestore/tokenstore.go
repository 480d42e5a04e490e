package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

const platformGCM = "gcm"

// FirestoreStore implements dispatch.TokenStore using Google Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// deviceRecord is the internal DB representation.
type deviceRecord struct {
	Platform       string    `firestore:"platform"`
	RegistrationID string    `firestore:"registration_id"`
	ReplacedFrom   string    `firestore:"replaced_from,omitempty"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

func (s *FirestoreStore) Register(ctx context.Context, user urn.URN, registrationID string) error {
	record := deviceRecord{
		Platform:       platformGCM,
		RegistrationID: registrationID,
		UpdatedAt:      time.Now(),
	}
	_, err := s.deviceRef(user, registrationID).Set(ctx, record)
	return err
}

func (s *FirestoreStore) Unregister(ctx context.Context, user urn.URN, registrationID string) error {
	_, err := s.deviceRef(user, registrationID).Delete(ctx)
	return err
}

// Replace drops oldID and stores newID in one transaction, so a concurrent
// Fetch never sees the device twice or not at all.
func (s *FirestoreStore) Replace(ctx context.Context, user urn.URN, oldID, newID string) error {
	oldRef := s.deviceRef(user, oldID)
	newRef := s.deviceRef(user, newID)
	record := deviceRecord{
		Platform:       platformGCM,
		RegistrationID: newID,
		ReplacedFrom:   oldID,
		UpdatedAt:      time.Now(),
	}

	if oldID == newID {
		_, err := newRef.Set(ctx, record)
		return err
	}

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Delete(oldRef); err != nil {
			return err
		}
		return tx.Set(newRef, record)
	})
	if err != nil {
		return fmt.Errorf("firestore replace registration id: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Fetch(ctx context.Context, user urn.URN) ([]string, error) {
	iter := s.devicesCollection(user).Documents(ctx)
	defer iter.Stop()

	ids := make([]string, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record deviceRecord
		if err := doc.DataTo(&record); err != nil {
			// Corrupt rows are skipped rather than failing the whole user.
			continue
		}
		if record.Platform == platformGCM && record.RegistrationID != "" {
			ids = append(ids, record.RegistrationID)
		}
	}
	return ids, nil
}

// deviceRef: users/{userID}/devices/{sha256(registrationID)}
func (s *FirestoreStore) deviceRef(user urn.URN, registrationID string) *firestore.DocumentRef {
	return s.devicesCollection(user).Doc(hashToken(registrationID))
}

func (s *FirestoreStore) devicesCollection(user urn.URN) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(user.String()).Collection("devices")
}

// hashToken keeps ids of arbitrary length and alphabet usable as doc ids and
// avoids hot-spotting on sequential prefixes.
func hashToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
