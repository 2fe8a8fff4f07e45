// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/viewgate/viewgate/internal/models"
)

const visitorKeyPrefix = "visitor:"

// VisitorStore holds per-fingerprint bookkeeping records scoped under a
// content item. Records are written only on admitted views.
//
// When ttl is zero, records live forever — the reference behavior.
// A positive ttl bounds per-visitor state growth using badger's native
// entry expiry; an expired record simply makes the visitor's next
// attempt look like a first view again.
type VisitorStore struct {
	db  *badger.DB
	ttl time.Duration
}

func visitorKey(contentID, visitorHash string) []byte {
	return []byte(visitorKeyPrefix + contentID + ":" + visitorHash)
}

// Get returns the visitor's state for the content item, or nil (no
// error) when the fingerprint has never been admitted for this content.
func (s *VisitorStore) Get(ctx context.Context, contentID, visitorHash string) (*models.VisitorState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state *models.VisitorState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(visitorKey(contentID, visitorHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded := &models.VisitorState{}
			if err := json.Unmarshal(val, decoded); err != nil {
				return err
			}
			state = decoded
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get visitor %s/%s: %w", contentID, visitorHash, err)
	}
	return state, nil
}

// Put writes the visitor's state, applying the configured TTL if any.
func (s *VisitorStore) Put(ctx context.Context, contentID string, state *models.VisitorState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode visitor state: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(visitorKey(contentID, state.VisitorHash), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("put visitor %s/%s: %w", contentID, state.VisitorHash, err)
	}
	return nil
}
