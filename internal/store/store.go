// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package store persists Viewgate's state in BadgerDB: per-content view
// counters, per-fingerprint visitor records, content metadata, and
// milestone notifications.
//
// Key layout:
//
//	counter:<contentID>                    -> models.ViewCounter
//	visitor:<contentID>:<hash>             -> models.VisitorState
//	content:<contentID>                    -> models.Content
//	notification:<ownerID>:<reverse-ts>:<id> -> models.Notification
//
// Counter increments run inside badger's serializable transactions and
// retry on commit conflict, which provides the atomic increment
// primitive the engine delegates concurrent-mutation safety to.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/logging"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// maxTxnRetries bounds retries on badger commit conflicts. Conflicts are
// rare (two concurrent increments of one counter) and resolve on the
// next attempt, so a small bound suffices.
const maxTxnRetries = 16

// Store wraps the shared badger handle and exposes the typed sub-stores.
type Store struct {
	db            *badger.DB
	Counters      *CounterStore
	Visitors      *VisitorStore
	Contents      *ContentStore
	Notifications *NotificationStore
}

// Open opens (or creates) the badger database described by cfg and wires
// the typed sub-stores. An empty path selects an in-memory database.
func Open(cfg *config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(newBadgerLogger())

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}

	return &Store{
		db:            db,
		Counters:      &CounterStore{db: db},
		Visitors:      &VisitorStore{db: db, ttl: cfg.VisitorTTL},
		Contents:      &ContentStore{db: db},
		Notifications: &NotificationStore{db: db},
	}, nil
}

// DB exposes the underlying handle for maintenance tasks (GC service).
func (s *Store) DB() *badger.DB { return s.db }

// Ping verifies the database is usable. Used by the readiness probe.
func (s *Store) Ping() error {
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunValueLogGC triggers one round of value-log garbage collection.
// badger.ErrNoRewrite (nothing to collect) is normalized to nil.
func (s *Store) RunValueLogGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// badgerLogger adapts badger's logger interface onto zerolog. Badger's
// info-level output is chatty; it is demoted to debug.
type badgerLogger struct{}

func newBadgerLogger() badger.Logger { return badgerLogger{} }

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}
