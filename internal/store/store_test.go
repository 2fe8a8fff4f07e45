// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package store

import (
	"testing"
	"time"

	"github.com/viewgate/viewgate/internal/config"
)

// newTestStore opens an in-memory store torn down with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&config.StoreConfig{Path: ""})
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

// newTestStoreTTL opens an in-memory store with a visitor TTL.
func newTestStoreTTL(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(&config.StoreConfig{Path: "", VisitorTTL: ttl})
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

func TestOpenOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(&config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("open store at %s: %v", dir, err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	}()

	if err := s.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRunValueLogGCNoRewrite(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(&config.StoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	}()

	// Nothing to collect on a fresh database; ErrNoRewrite must be
	// normalized to nil.
	if err := s.RunValueLogGC(0.5); err != nil {
		t.Errorf("RunValueLogGC on fresh store = %v, want nil", err)
	}
}
