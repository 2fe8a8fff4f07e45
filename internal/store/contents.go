// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/viewgate/viewgate/internal/models"
)

const contentKeyPrefix = "content:"

// ContentStore holds content metadata used to address milestone
// notifications. Registration is optional: views on unregistered content
// are still counted, but milestone crossings have no owner to notify.
type ContentStore struct {
	db *badger.DB
}

func contentKey(contentID string) []byte {
	return []byte(contentKeyPrefix + contentID)
}

// Put registers or updates content metadata.
func (s *ContentStore) Put(ctx context.Context, content *models.Content) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(contentKey(content.ContentID), data)
	})
	if err != nil {
		return fmt.Errorf("put content %s: %w", content.ContentID, err)
	}
	return nil
}

// Get returns the content metadata, or ErrNotFound.
func (s *ContentStore) Get(ctx context.Context, contentID string) (*models.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var content models.Content
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(contentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &content)
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content %s: %w", contentID, err)
	}
	return &content, nil
}
