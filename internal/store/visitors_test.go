// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"testing"
	"time"

	"github.com/viewgate/viewgate/internal/models"
)

func TestVisitorGetAbsent(t *testing.T) {
	s := newTestStore(t)

	state, err := s.Visitors.Get(context.Background(), "post-1", "deadbeef00000000")
	if err != nil {
		t.Fatalf("get absent visitor: %v", err)
	}
	if state != nil {
		t.Errorf("absent visitor state = %+v, want nil", state)
	}
}

func TestVisitorPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	in := &models.VisitorState{
		VisitorHash:  "deadbeef00000000",
		FirstSeenAt:  now,
		LastViewAt:   now,
		LastViewDate: "2026-03-15",
		ViewsToday:   3,
		TotalViews:   17,
	}
	if err := s.Visitors.Put(ctx, "post-1", in); err != nil {
		t.Fatalf("put visitor: %v", err)
	}

	out, err := s.Visitors.Get(ctx, "post-1", "deadbeef00000000")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if out == nil {
		t.Fatal("visitor state missing after put")
	}
	if out.VisitorHash != in.VisitorHash ||
		out.LastViewDate != in.LastViewDate ||
		out.ViewsToday != in.ViewsToday ||
		out.TotalViews != in.TotalViews {
		t.Errorf("round trip mismatch: %+v, want %+v", out, in)
	}
	if !out.LastViewAt.Equal(in.LastViewAt) {
		t.Errorf("LastViewAt = %v, want %v", out.LastViewAt, in.LastViewAt)
	}
}

func TestVisitorScopedByContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := &models.VisitorState{
		VisitorHash:  "deadbeef00000000",
		LastViewDate: "2026-03-15",
		ViewsToday:   1,
		TotalViews:   1,
	}
	if err := s.Visitors.Put(ctx, "post-1", state); err != nil {
		t.Fatalf("put visitor: %v", err)
	}

	// Same fingerprint under a different content item is a fresh visitor.
	other, err := s.Visitors.Get(ctx, "post-2", "deadbeef00000000")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if other != nil {
		t.Errorf("visitor leaked across content items: %+v", other)
	}
}

func TestVisitorTTLExpiry(t *testing.T) {
	s := newTestStoreTTL(t, time.Second)
	ctx := context.Background()

	state := &models.VisitorState{
		VisitorHash:  "deadbeef00000000",
		LastViewDate: "2026-03-15",
		ViewsToday:   1,
		TotalViews:   1,
	}
	if err := s.Visitors.Put(ctx, "post-1", state); err != nil {
		t.Fatalf("put visitor: %v", err)
	}

	got, err := s.Visitors.Get(ctx, "post-1", "deadbeef00000000")
	if err != nil {
		t.Fatalf("get visitor: %v", err)
	}
	if got == nil {
		t.Fatal("visitor state missing before TTL expiry")
	}

	// Badger TTL resolution is one second.
	time.Sleep(1500 * time.Millisecond)

	got, err = s.Visitors.Get(ctx, "post-1", "deadbeef00000000")
	if err != nil {
		t.Fatalf("get visitor after expiry: %v", err)
	}
	if got != nil {
		t.Errorf("visitor state survived TTL: %+v", got)
	}
}
