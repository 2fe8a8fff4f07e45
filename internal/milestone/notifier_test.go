// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package milestone

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/store"
)

const testTopic = "views.milestone.test"

func newTestStore(t *testing.T) *store.Store {
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
	return s
}

func newTestChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
}

// waitForNotifications polls until the owner has at least want
// notifications or the deadline passes.
func waitForNotifications(t *testing.T, s *store.Store, ownerID string, want int) []int64 {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		notifications, err := s.Notifications.ListByOwner(context.Background(), ownerID, 100)
		if err != nil {
			t.Fatalf("list notifications: %v", err)
		}
		if len(notifications) >= want {
			milestones := make([]int64, len(notifications))
			for i, n := range notifications {
				milestones[i] = n.Milestone
			}
			return milestones
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d notifications for %s", want, ownerID)
	return nil
}

func TestPublisherToNotifier(t *testing.T) {
	s := newTestStore(t)
	channel := newTestChannel()

	notifier := NewNotifier(channel, testTopic, s.Notifications, 100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- notifier.Run(ctx) }()

	// Give the subscription a moment to attach; gochannel drops messages
	// published before any subscriber exists.
	time.Sleep(50 * time.Millisecond)

	publisher := NewPublisher(channel, testTopic)
	event := &Event{
		EventID:    "evt-1",
		ContentID:  "post-42",
		OwnerID:    "author-7",
		Milestone:  100,
		Count:      100,
		OccurredAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := publisher.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	milestones := waitForNotifications(t, s, "author-7", 1)
	if milestones[0] != 100 {
		t.Errorf("notification milestone = %d, want 100", milestones[0])
	}

	notifications, err := s.Notifications.ListByOwner(context.Background(), "author-7", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	n := notifications[0]
	if n.ContentID != "post-42" || n.OwnerID != "author-7" || n.Count != 100 {
		t.Errorf("notification = %+v, want content post-42 owner author-7 count 100", n)
	}
	if n.ID == "" {
		t.Error("notification has empty ID")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notifier did not stop after cancel")
	}
}

func TestNotifierDropsMalformedEvents(t *testing.T) {
	s := newTestStore(t)
	channel := newTestChannel()

	notifier := NewNotifier(channel, testTopic, s.Notifications, 100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = notifier.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// Malformed payload first, then a valid event. The valid one must
	// still be processed, proving the malformed one was acked and
	// dropped rather than wedging the consumer.
	if err := channel.Publish(testTopic, message.NewMessage("bad-1", []byte("not json"))); err != nil {
		t.Fatalf("publish malformed: %v", err)
	}

	publisher := NewPublisher(channel, testTopic)
	event := &Event{
		EventID:    "evt-2",
		ContentID:  "post-9",
		OwnerID:    "author-3",
		Milestone:  500,
		Count:      500,
		OccurredAt: time.Now().UTC(),
	}
	if err := publisher.PublishEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishEvent failed: %v", err)
	}

	milestones := waitForNotifications(t, s, "author-3", 1)
	if milestones[0] != 500 {
		t.Errorf("notification milestone = %d, want 500", milestones[0])
	}
}

func TestPublisherClosed(t *testing.T) {
	channel := newTestChannel()
	publisher := NewPublisher(channel, testTopic)

	if err := publisher.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Idempotent close.
	if err := publisher.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	event := &Event{EventID: "evt-3", ContentID: "post-1", Milestone: 100, Count: 100}
	if err := publisher.PublishEvent(context.Background(), event); err == nil {
		t.Error("PublishEvent on closed publisher succeeded")
	}
}
