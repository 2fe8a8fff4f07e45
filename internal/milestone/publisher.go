// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package milestone

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/viewgate/viewgate/internal/metrics"
)

// Publisher wraps a Watermill publisher with circuit breaker protection.
// Publishing a milestone event is strictly best-effort: callers on the
// view-record path log failures and move on, and an open breaker fails
// fast instead of stalling view recording behind a dead broker.
type Publisher struct {
	publisher      message.Publisher
	topic          string
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher creates a milestone publisher over any Watermill
// transport (gochannel in-process by default, NATS JetStream when
// configured).
func NewPublisher(pub message.Publisher, topic string) *Publisher {
	return &Publisher{publisher: pub, topic: topic}
}

// SetCircuitBreaker configures breaker protection for publish calls.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// PublishEvent serializes and publishes a milestone event. The event ID
// doubles as the message UUID so JetStream-level deduplication works
// when the NATS transport is active.
func (p *Publisher) PublishEvent(ctx context.Context, event *Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("milestone publisher is closed")
	}
	p.mu.RUnlock()

	data, err := event.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(event.EventID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("content_id", event.ContentID)
	msg.Metadata.Set("milestone", strconv.FormatInt(event.Milestone, 10))

	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(p.topic, msg)
		})
	} else {
		err = p.publisher.Publish(p.topic, msg)
	}
	if err != nil {
		return fmt.Errorf("publish milestone event %s: %w", event.EventID, err)
	}

	metrics.MilestonesEmittedTotal.WithLabelValues(strconv.FormatInt(event.Milestone, 10)).Inc()
	return nil
}

// Close marks the publisher closed and shuts down the transport.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
