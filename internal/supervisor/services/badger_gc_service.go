// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package services

import (
	"context"
	"time"

	"github.com/viewgate/viewgate/internal/logging"
)

// ValueLogGC matches the store's garbage collection hook.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// gcDiscardRatio is the badger-recommended threshold: a value log file is
// rewritten only when at least half of it is stale.
const gcDiscardRatio = 0.5

// BadgerGCService periodically runs badger's value-log garbage
// collection. Badger does not GC on its own; without this loop the value
// log grows without bound on long-running deployments.
type BadgerGCService struct {
	store    ValueLogGC
	interval time.Duration
	name     string
}

// NewBadgerGCService creates the GC service. A non-positive interval
// defaults to 10 minutes.
func NewBadgerGCService(store ValueLogGC, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &BadgerGCService{store: store, interval: interval, name: "badger-gc"}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// GC failures are logged, not fatal; the next tick retries.
			if err := s.store.RunValueLogGC(gcDiscardRatio); err != nil {
				logging.Warn().Err(err).Msg("badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's event logging.
func (s *BadgerGCService) String() string {
	return s.name
}
