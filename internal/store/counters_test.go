// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCounterIncrementSequential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := int64(1); i <= 5; i++ {
		before, after, err := s.Counters.Increment(ctx, "post-1", now)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if before != i-1 || after != i {
			t.Errorf("increment %d: before/after = %d/%d, want %d/%d", i, before, after, i-1, i)
		}
	}

	counter, err := s.Counters.Get(ctx, "post-1")
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if counter.Count != 5 {
		t.Errorf("Count = %d, want 5", counter.Count)
	}
	if !counter.LastViewedAt.Equal(now) {
		t.Errorf("LastViewedAt = %v, want %v", counter.LastViewedAt, now)
	}
}

func TestCounterGetUnknownContent(t *testing.T) {
	s := newTestStore(t)

	counter, err := s.Counters.Get(context.Background(), "never-viewed")
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if counter.Count != 0 {
		t.Errorf("Count = %d, want 0 for unknown content", counter.Count)
	}
	if counter.ContentID != "never-viewed" {
		t.Errorf("ContentID = %q, want never-viewed", counter.ContentID)
	}
}

// TestCounterIncrementConcurrent verifies no increment is lost under
// contention: conflicting transactions must retry until they land.
func TestCounterIncrementConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	const (
		goroutines = 8
		perRoutine = 25
	)

	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perRoutine; i++ {
				if _, _, err := s.Counters.Increment(ctx, "hot-post", now); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent increment failed: %v", err)
	}

	counter, err := s.Counters.Get(ctx, "hot-post")
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if want := int64(goroutines * perRoutine); counter.Count != want {
		t.Errorf("Count = %d, want %d (lost increments)", counter.Count, want)
	}
}

func TestCounterIncrementIndependentContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, _, err := s.Counters.Increment(ctx, "post-a", now); err != nil {
		t.Fatalf("increment post-a: %v", err)
	}
	if _, _, err := s.Counters.Increment(ctx, "post-a", now); err != nil {
		t.Fatalf("increment post-a: %v", err)
	}
	if _, _, err := s.Counters.Increment(ctx, "post-b", now); err != nil {
		t.Fatalf("increment post-b: %v", err)
	}

	a, _ := s.Counters.Get(ctx, "post-a")
	b, _ := s.Counters.Get(ctx, "post-b")
	if a.Count != 2 || b.Count != 1 {
		t.Errorf("counts = %d/%d, want 2/1", a.Count, b.Count)
	}
}

func TestCounterIncrementCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := s.Counters.Increment(ctx, "post-1", time.Now()); err == nil {
		t.Error("increment with canceled context succeeded")
	}
}
