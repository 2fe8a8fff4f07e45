// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package tracker orchestrates the view-recording pipeline: gate
// decision, visitor-state persistence, counter increment, and milestone
// emission.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/viewgate/viewgate/internal/logging"
	"github.com/viewgate/viewgate/internal/metrics"
	"github.com/viewgate/viewgate/internal/milestone"
	"github.com/viewgate/viewgate/internal/models"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/viewgate"
)

// Result is the outcome of one record-view call. Rejection is a normal,
// silent outcome, not an error: the caller still receives the current
// total and no user-visible signal distinguishes counted from
// deduplicated.
type Result struct {
	Admitted  bool
	Rejection models.RejectReason
	Count     int64
}

// Tracker ties the gate to the stores and the milestone publisher.
//
// Concurrency note: the counter increment is transactional in the store,
// but the visitor gate check-then-write is not — two truly concurrent
// requests from one fingerprint can both pass the cooldown check before
// either write lands. This best-effort window is deliberate; it mirrors
// the reference behavior and keeps the hot path to one read and two
// writes.
type Tracker struct {
	gate      *viewgate.Gate
	counters  *store.CounterStore
	visitors  *store.VisitorStore
	contents  *store.ContentStore
	publisher *milestone.Publisher
}

// New creates a Tracker. The publisher may be nil, which disables
// milestone emission (useful in tests that only exercise gating).
func New(gate *viewgate.Gate, s *store.Store, publisher *milestone.Publisher) *Tracker {
	return &Tracker{
		gate:      gate,
		counters:  s.Counters,
		visitors:  s.Visitors,
		contents:  s.Contents,
		publisher: publisher,
	}
}

// Record processes one view attempt for contentID by the visitor with
// the given fingerprint.
//
// Store failures propagate to the caller and leave the counter
// unchanged: if the visitor-state write fails, the increment never runs.
// Milestone publishing is fire-and-forget — its failure is logged and
// swallowed because the view is already durably counted.
func (t *Tracker) Record(ctx context.Context, contentID, visitorHash string, now time.Time) (Result, error) {
	state, err := t.visitors.Get(ctx, contentID, visitorHash)
	if err != nil {
		metrics.RecordStoreError("visitor_get")
		return Result{}, fmt.Errorf("load visitor state: %w", err)
	}

	decision := t.gate.Admit(state, visitorHash, now)
	if !decision.Admit {
		metrics.RecordRejection(string(decision.Reason))
		counter, err := t.counters.Get(ctx, contentID)
		if err != nil {
			metrics.RecordStoreError("counter_get")
			return Result{}, fmt.Errorf("read counter: %w", err)
		}
		return Result{Admitted: false, Rejection: decision.Reason, Count: counter.Count}, nil
	}

	if err := t.visitors.Put(ctx, contentID, decision.State); err != nil {
		metrics.RecordStoreError("visitor_put")
		return Result{}, fmt.Errorf("persist visitor state: %w", err)
	}

	before, after, err := t.counters.Increment(ctx, contentID, now)
	if err != nil {
		metrics.RecordStoreError("counter_increment")
		return Result{}, fmt.Errorf("increment counter: %w", err)
	}

	metrics.ViewsAdmittedTotal.Inc()
	t.maybeEmitMilestone(ctx, contentID, before, after, now)

	return Result{Admitted: true, Count: after}, nil
}

// Count returns the current public total for contentID (0 if never
// viewed).
func (t *Tracker) Count(ctx context.Context, contentID string) (int64, error) {
	counter, err := t.counters.Get(ctx, contentID)
	if err != nil {
		metrics.RecordStoreError("counter_get")
		return 0, fmt.Errorf("read counter: %w", err)
	}
	return counter.Count, nil
}

// maybeEmitMilestone publishes a milestone event when the increment
// landed exactly on a threshold. Never fails the caller.
func (t *Tracker) maybeEmitMilestone(ctx context.Context, contentID string, before, after int64, now time.Time) {
	value, ok := milestone.Crossed(before, after)
	if !ok || t.publisher == nil {
		return
	}

	content, err := t.contents.Get(ctx, contentID)
	if errors.Is(err, store.ErrNotFound) {
		// No registered owner to notify. The crossing is gone for good;
		// content registered later only gets future milestones.
		logging.Debug().
			Str("content_id", contentID).
			Int64("milestone", value).
			Msg("milestone crossed on unregistered content, no notification")
		return
	}
	if err != nil {
		metrics.RecordStoreError("content_get")
		logging.Warn().Err(err).Str("content_id", contentID).Msg("content lookup failed, milestone dropped")
		return
	}

	event := &milestone.Event{
		EventID:    uuid.New().String(),
		ContentID:  contentID,
		OwnerID:    content.OwnerID,
		Milestone:  value,
		Count:      after,
		OccurredAt: now,
	}

	if err := t.publisher.PublishEvent(ctx, event); err != nil {
		metrics.MilestonePublishFailures.Inc()
		logging.Warn().Err(err).
			Str("content_id", contentID).
			Int64("milestone", value).
			Msg("milestone publish failed, dropped")
	}
}
