// Package firestore persists the badge count in a single Cloud Firestore document.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-notification-badge/pkg/badge"
)

// Store implements badge.Store. The count lives at
// <collection>/<badge.Key>, with the collection defaulting to badge.Namespace.
type Store struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreStore(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = badge.Namespace
	}
	return &Store{client: client, collection: collection}
}

// badgeRecord is the stored document.
type badgeRecord struct {
	Count     int       `firestore:"count"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (s *Store) Save(ctx context.Context, count int) error {
	record := badgeRecord{Count: count, UpdatedAt: time.Now().UTC()}
	if _, err := s.doc().Set(ctx, record); err != nil {
		return fmt.Errorf("failed to save badge count: %w", err)
	}
	return nil
}

// Load returns 0 when the document has never been written.
func (s *Store) Load(ctx context.Context) (int, error) {
	snap, err := s.doc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load badge count: %w", err)
	}

	var record badgeRecord
	if err := snap.DataTo(&record); err != nil {
		return 0, fmt.Errorf("failed to decode badge document %s: %w", snap.Ref.ID, err)
	}
	return record.Count, nil
}

func (s *Store) doc() *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(badge.Key)
}
