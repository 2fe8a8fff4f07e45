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

	"github.com/viewgate/viewgate/internal/metrics"
	"github.com/viewgate/viewgate/internal/models"
)

const counterKeyPrefix = "counter:"

// CounterStore holds the durable per-content view counters.
type CounterStore struct {
	db *badger.DB
}

func counterKey(contentID string) []byte {
	return []byte(counterKeyPrefix + contentID)
}

// Increment atomically adds 1 to the counter for contentID, creating it
// at zero first if absent, and records now as the last-viewed time. It
// returns the counter value before and after the increment so the caller
// can run the milestone check.
//
// The read-modify-write runs in a serializable badger transaction;
// concurrent increments of the same counter conflict at commit and are
// retried, so no increment is ever lost.
func (s *CounterStore) Increment(ctx context.Context, contentID string, now time.Time) (before, after int64, err error) {
	key := counterKey(contentID)

	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return 0, 0, err
		}

		err = s.db.Update(func(txn *badger.Txn) error {
			counter := models.ViewCounter{ContentID: contentID}

			item, getErr := txn.Get(key)
			switch {
			case errors.Is(getErr, badger.ErrKeyNotFound):
				// lazily created at zero
			case getErr != nil:
				return fmt.Errorf("get counter: %w", getErr)
			default:
				if valErr := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &counter)
				}); valErr != nil {
					return fmt.Errorf("decode counter: %w", valErr)
				}
			}

			before = counter.Count
			counter.Count++
			counter.LastViewedAt = now
			after = counter.Count

			data, marshalErr := json.Marshal(&counter)
			if marshalErr != nil {
				return fmt.Errorf("encode counter: %w", marshalErr)
			}
			return txn.Set(key, data)
		})

		if errors.Is(err, badger.ErrConflict) {
			metrics.CounterIncrementRetries.Inc()
			continue
		}
		if err != nil {
			return 0, 0, fmt.Errorf("increment counter %s: %w", contentID, err)
		}
		return before, after, nil
	}

	return 0, 0, fmt.Errorf("increment counter %s: retries exhausted: %w", contentID, err)
}

// Get returns the current counter record for contentID. A content item
// that has never been viewed yields a zero counter, not an error.
func (s *CounterStore) Get(ctx context.Context, contentID string) (*models.ViewCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counter := models.ViewCounter{ContentID: contentID}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(counterKey(contentID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &counter)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("get counter %s: %w", contentID, err)
	}
	return &counter, nil
}
