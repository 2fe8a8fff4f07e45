// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package milestone

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Event is the payload published when a counter lands on a milestone.
// It carries everything the notification writer needs so the consumer
// never has to call back into the counter store.
type Event struct {
	EventID    string    `json:"event_id"`
	ContentID  string    `json:"content_id"`
	OwnerID    string    `json:"owner_id"`
	Milestone  int64     `json:"milestone"`
	Count      int64     `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Marshal serializes the event for the message payload.
func (e *Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal milestone event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent deserializes a message payload into an Event.
func UnmarshalEvent(data []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("unmarshal milestone event: %w", err)
	}
	if e.ContentID == "" {
		return nil, fmt.Errorf("milestone event missing content_id")
	}
	return e, nil
}
