// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viewgate/viewgate/internal/models"
)

func TestContentGetAbsent(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Contents.Get(context.Background(), "unregistered")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("get absent content err = %v, want ErrNotFound", err)
	}
}

func TestContentPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := &models.Content{
		ContentID: "post-42",
		OwnerID:   "author-7",
		Title:     "A Post About Gophers",
		CreatedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := s.Contents.Put(ctx, in); err != nil {
		t.Fatalf("put content: %v", err)
	}

	out, err := s.Contents.Get(ctx, "post-42")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if out.ContentID != in.ContentID || out.OwnerID != in.OwnerID || out.Title != in.Title {
		t.Errorf("round trip mismatch: %+v, want %+v", out, in)
	}
}

func TestContentPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.Content{ContentID: "post-42", OwnerID: "author-7", Title: "Draft"}
	if err := s.Contents.Put(ctx, first); err != nil {
		t.Fatalf("put content: %v", err)
	}

	second := &models.Content{ContentID: "post-42", OwnerID: "author-8", Title: "Final"}
	if err := s.Contents.Put(ctx, second); err != nil {
		t.Fatalf("overwrite content: %v", err)
	}

	out, err := s.Contents.Get(ctx, "post-42")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	if out.OwnerID != "author-8" || out.Title != "Final" {
		t.Errorf("content after overwrite = %+v, want author-8/Final", out)
	}
}
