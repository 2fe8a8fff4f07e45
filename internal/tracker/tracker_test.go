// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/milestone"
	"github.com/viewgate/viewgate/internal/models"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/viewgate"
)

const (
	testTopic = "views.milestone.test"
	testHash  = "a1b2c3d4e5f60718"
)

type fixture struct {
	tracker *Tracker
	store   *store.Store
	events  <-chan *message.Message
}

// newFixture builds a tracker over an in-memory store with an
// in-process event channel subscribed to the milestone topic.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.Open(&config.StoreConfig{Path: ""})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	channel := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events, err := channel.Subscribe(ctx, testTopic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	gate := viewgate.New(30*time.Second, 5)
	publisher := milestone.NewPublisher(channel, testTopic)

	return &fixture{
		tracker: New(gate, s, publisher),
		store:   s,
		events:  events,
	}
}

func (f *fixture) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case msg := <-f.events:
		t.Fatalf("unexpected milestone event: %s", msg.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func (f *fixture) expectEvent(t *testing.T) *milestone.Event {
	t.Helper()
	select {
	case msg := <-f.events:
		msg.Ack()
		event, err := milestone.UnmarshalEvent(msg.Payload)
		if err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for milestone event")
		return nil
	}
}

func TestRecordFirstView(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	result, err := f.tracker.Record(context.Background(), "post-1", testHash, now)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !result.Admitted {
		t.Fatalf("first view rejected: %s", result.Rejection)
	}
	if result.Count != 1 {
		t.Errorf("Count = %d, want 1", result.Count)
	}

	// Visitor state persisted.
	state, err := f.store.Visitors.Get(context.Background(), "post-1", testHash)
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if state == nil || state.ViewsToday != 1 || state.TotalViews != 1 {
		t.Errorf("visitor state = %+v, want ViewsToday=1 TotalViews=1", state)
	}
}

func TestRecordCooldownRejection(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if _, err := f.tracker.Record(ctx, "post-1", testHash, now); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Reload five seconds later: rejected, count unchanged, and the
	// stored state untouched so the cooldown window is not extended.
	result, err := f.tracker.Record(ctx, "post-1", testHash, now.Add(5*time.Second))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if result.Admitted {
		t.Fatal("reload inside cooldown admitted")
	}
	if result.Rejection != models.RejectCooldown {
		t.Errorf("Rejection = %q, want %q", result.Rejection, models.RejectCooldown)
	}
	if result.Count != 1 {
		t.Errorf("Count = %d, want 1", result.Count)
	}

	state, err := f.store.Visitors.Get(ctx, "post-1", testHash)
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if !state.LastViewAt.Equal(now) {
		t.Errorf("rejected attempt moved LastViewAt to %v, want %v", state.LastViewAt, now)
	}

	// A view after the full cooldown from the first admit succeeds.
	result, err = f.tracker.Record(ctx, "post-1", testHash, now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !result.Admitted || result.Count != 2 {
		t.Errorf("post-cooldown view: admitted=%v count=%d, want true/2", result.Admitted, result.Count)
	}
}

func TestRecordDailyCapRejection(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := f.tracker.Record(ctx, "post-1", testHash, now)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !result.Admitted {
			t.Fatalf("view %d rejected: %s", i, result.Rejection)
		}
		now = now.Add(time.Minute)
	}

	result, err := f.tracker.Record(ctx, "post-1", testHash, now)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if result.Admitted {
		t.Fatal("sixth view of the day admitted")
	}
	if result.Rejection != models.RejectDailyCap {
		t.Errorf("Rejection = %q, want %q", result.Rejection, models.RejectDailyCap)
	}
	if result.Count != 5 {
		t.Errorf("Count = %d, want 5", result.Count)
	}
}

func TestRecordDistinctVisitorsIndependent(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		hash := fmt.Sprintf("visitor%09d0000", i)
		result, err := f.tracker.Record(ctx, "post-1", hash, now)
		if err != nil {
			t.Fatalf("record visitor %d: %v", i, err)
		}
		if !result.Admitted {
			t.Fatalf("visitor %d rejected: %s", i, result.Rejection)
		}
	}

	count, err := f.tracker.Count(ctx, "post-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}
}

func TestCountUnknownContent(t *testing.T) {
	f := newFixture(t)

	count, err := f.tracker.Count(context.Background(), "never-viewed")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}
}

// TestRecordMilestoneEmission drives a registered content item to the
// first threshold with distinct visitors and checks exactly one event
// fires, carrying the owner.
func TestRecordMilestoneEmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	err := f.store.Contents.Put(ctx, &models.Content{
		ContentID: "post-42",
		OwnerID:   "author-7",
		Title:     "Hot Post",
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("register content: %v", err)
	}

	for i := 0; i < 100; i++ {
		hash := fmt.Sprintf("visitor%09d", i)
		result, err := f.tracker.Record(ctx, "post-42", hash, now)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if !result.Admitted {
			t.Fatalf("visitor %d rejected: %s", i, result.Rejection)
		}
	}

	event := f.expectEvent(t)
	if event.Milestone != 100 {
		t.Errorf("Milestone = %d, want 100", event.Milestone)
	}
	if event.ContentID != "post-42" || event.OwnerID != "author-7" {
		t.Errorf("event = %+v, want post-42/author-7", event)
	}
	if event.Count != 100 {
		t.Errorf("Count = %d, want 100", event.Count)
	}

	// Only the exact landing fires; 101 must not.
	if _, err := f.tracker.Record(ctx, "post-42", "one-more-visitor0", now); err != nil {
		t.Fatalf("record: %v", err)
	}
	f.expectNoEvent(t)
}

// TestRecordUnregisteredContentNoEvent verifies crossings on content
// without an owner are silently dropped.
func TestRecordUnregisteredContentNoEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 100; i++ {
		hash := fmt.Sprintf("visitor%09d", i)
		if _, err := f.tracker.Record(ctx, "orphan-post", hash, now); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	f.expectNoEvent(t)

	// The count itself is unaffected.
	count, err := f.tracker.Count(ctx, "orphan-post")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 100 {
		t.Errorf("Count = %d, want 100", count)
	}
}

func TestRecordNilPublisher(t *testing.T) {
	s, err := store.Open(&config.StoreConfig{Path: ""})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	}()

	trk := New(viewgate.New(30*time.Second, 5), s, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 100; i++ {
		hash := fmt.Sprintf("visitor%09d", i)
		if _, err := trk.Record(ctx, "post-1", hash, now); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	count, err := trk.Count(ctx, "post-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 100 {
		t.Errorf("Count = %d, want 100", count)
	}
}
