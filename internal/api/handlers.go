// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package api provides Viewgate's HTTP surface: view recording, count
// reads, content registration, notification listing, and health probes,
// routed with Chi.
package api

import (
	"time"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/tracker"
)

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_views.go: record-view and read-count endpoints
//   - handlers_content.go: content registration endpoints
//   - handlers_notifications.go: notification listing endpoint
//   - handlers_health.go: health and readiness probes
type Handler struct {
	tracker       *tracker.Tracker
	contents      *store.ContentStore
	notifications *store.NotificationStore
	store         *store.Store
	config        *config.Config
	startTime     time.Time
}

// NewHandler creates an API handler with all required dependencies.
func NewHandler(trk *tracker.Tracker, s *store.Store, cfg *config.Config) *Handler {
	return &Handler{
		tracker:       trk,
		contents:      s.Contents,
		notifications: s.Notifications,
		store:         s,
		config:        cfg,
		startTime:     time.Now(),
	}
}
