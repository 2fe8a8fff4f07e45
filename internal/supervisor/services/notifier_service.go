// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package services

import (
	"context"
	"errors"
)

// EventConsumer matches the milestone notifier's Run method.
type EventConsumer interface {
	Run(ctx context.Context) error
}

// NotifierService runs the milestone notification consumer under
// supervision. A crash (e.g. a broken subscription after a broker
// restart) is restarted by the messaging-layer supervisor.
type NotifierService struct {
	consumer EventConsumer
	name     string
}

// NewNotifierService wraps the consumer as a suture service.
func NewNotifierService(consumer EventConsumer) *NotifierService {
	return &NotifierService{consumer: consumer, name: "milestone-notifier"}
}

// Serve implements suture.Service. Context cancellation is a normal
// shutdown, not a failure.
func (s *NotifierService) Serve(ctx context.Context) error {
	err := s.consumer.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ctx.Err()
	}
	return err
}

// String implements fmt.Stringer for suture's event logging.
func (s *NotifierService) String() string {
	return s.name
}
