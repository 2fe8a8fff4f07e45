// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package models defines the persisted and wire-level types shared across
// the store, gate, tracker, and API layers.
package models

import "time"

// ViewCounter is the durable per-content aggregate of admitted views.
//
// Invariant: Count only increases, and only as a direct result of an
// admitted view. The counter is created lazily on the first admitted view
// of a content item and lives indefinitely.
type ViewCounter struct {
	ContentID    string    `json:"content_id"`
	Count        int64     `json:"count"`
	LastViewedAt time.Time `json:"last_viewed_at"`
}

// VisitorState is the per-fingerprint bookkeeping record scoped under a
// content item. It is written only when a view is admitted; rejected
// attempts never touch it, which preserves the cooldown window's
// integrity.
//
// Invariants:
//   - ViewsToday resets to 1 (not 0) on the first admitted view of a new
//     UTC day.
//   - TotalViews is monotonically non-decreasing.
type VisitorState struct {
	VisitorHash  string    `json:"visitor_hash"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastViewAt   time.Time `json:"last_view_at"`
	LastViewDate string    `json:"last_view_date"` // UTC day key, YYYY-MM-DD
	ViewsToday   int       `json:"views_today"`
	TotalViews   int64     `json:"total_views"`
}

// RejectReason identifies which gate rejected a view attempt.
type RejectReason string

const (
	// RejectNone means the attempt was admitted.
	RejectNone RejectReason = ""

	// RejectCooldown means the attempt arrived within the cooldown window
	// after the visitor's last admitted view.
	RejectCooldown RejectReason = "cooldown"

	// RejectDailyCap means the visitor already hit the per-day admitted
	// view cap for the current UTC day.
	RejectDailyCap RejectReason = "daily_cap"
)

// GateDecision is the outcome of evaluating a single view attempt.
// State is the updated visitor record and is only meaningful when
// Admit is true; rejected attempts leave stored state untouched.
type GateDecision struct {
	Admit  bool
	Reason RejectReason
	State  *VisitorState
}

// Content holds the metadata needed to address milestone notifications.
// Registration is optional; unregistered content still counts views but
// produces no notifications (there is no owner to notify).
type Content struct {
	ContentID string    `json:"content_id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is the durable record written once per milestone crossing,
// addressed to the content owner. Delivery is at-most-once: a crossing
// whose event is lost in transit is never retried.
type Notification struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ContentID string    `json:"content_id"`
	Milestone int64     `json:"milestone"`
	Count     int64     `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}
