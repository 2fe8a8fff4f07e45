// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/viewgate/viewgate/internal/models"
)

const notificationKeyPrefix = "notification:"

// NotificationStore holds milestone notifications addressed to content
// owners. Keys embed a reverse timestamp so a prefix scan yields newest
// notifications first without sorting.
type NotificationStore struct {
	db *badger.DB
}

func notificationKey(n *models.Notification) []byte {
	// MaxUint64 - unixnano orders descending under lexicographic scan
	reverse := ^uint64(0) - uint64(n.CreatedAt.UnixNano())
	return []byte(fmt.Sprintf("%s%s:%020d:%s", notificationKeyPrefix, n.OwnerID, reverse, n.ID))
}

// Add writes one notification record.
func (s *NotificationStore) Add(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(notificationKey(n), data)
	})
	if err != nil {
		return fmt.Errorf("add notification %s: %w", n.ID, err)
	}
	return nil
}

// ListByOwner returns up to limit notifications for the owner, newest
// first. A limit of 0 or less applies the default of 50.
func (s *NotificationStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var notifications []*models.Notification
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(notificationKeyPrefix + ownerID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(notifications) < limit; it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				n := &models.Notification{}
				if err := json.Unmarshal(val, n); err != nil {
					return err
				}
				notifications = append(notifications, n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", ownerID, err)
	}
	return notifications, nil
}
