// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package milestone

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/viewgate/viewgate/internal/logging"
	"github.com/viewgate/viewgate/internal/metrics"
	"github.com/viewgate/viewgate/internal/models"
	"github.com/viewgate/viewgate/internal/store"
)

// Notifier consumes milestone events and writes one notification record
// per event to the store. Delivery is at-most-once: every message is
// acked whether or not processing succeeded, because the view that
// triggered it is already durably counted and the crossing will never
// recur — retrying buys nothing and risks duplicates.
type Notifier struct {
	subscriber    message.Subscriber
	topic         string
	notifications *store.NotificationStore
	limiter       *rate.Limiter
}

// NewNotifier creates a notifier consuming from topic. ratePerSec and
// burst throttle notification writes so a burst of crossings (e.g. after
// a replay) cannot flood the store.
func NewNotifier(sub message.Subscriber, topic string, notifications *store.NotificationStore, ratePerSec float64, burst int) *Notifier {
	if ratePerSec <= 0 {
		ratePerSec = 20
	}
	if burst <= 0 {
		burst = int(ratePerSec)
	}
	return &Notifier{
		subscriber:    sub,
		topic:         topic,
		notifications: notifications,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// Run consumes events until the context is canceled. It implements the
// body of the supervised notifier service.
func (n *Notifier) Run(ctx context.Context) error {
	messages, err := n.subscriber.Subscribe(ctx, n.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", n.topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			n.process(ctx, msg)
		}
	}
}

// process handles one message. Failures are logged and swallowed.
func (n *Notifier) process(ctx context.Context, msg *message.Message) {
	// Ack unconditionally: at-most-once semantics.
	defer msg.Ack()

	if err := n.limiter.Wait(ctx); err != nil {
		return
	}

	event, err := UnmarshalEvent(msg.Payload)
	if err != nil {
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed milestone event")
		return
	}

	notification := &models.Notification{
		ID:        uuid.New().String(),
		OwnerID:   event.OwnerID,
		ContentID: event.ContentID,
		Milestone: event.Milestone,
		Count:     event.Count,
		CreatedAt: event.OccurredAt,
	}

	if err := n.notifications.Add(ctx, notification); err != nil {
		metrics.RecordStoreError("notification_add")
		logging.Error().Err(err).
			Str("content_id", event.ContentID).
			Int64("milestone", event.Milestone).
			Msg("failed to write milestone notification")
		return
	}

	metrics.NotificationsWrittenTotal.Inc()
	logging.Info().
		Str("content_id", event.ContentID).
		Str("owner_id", event.OwnerID).
		Int64("milestone", event.Milestone).
		Msg("milestone notification written")
}
