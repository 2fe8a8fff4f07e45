// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package viewgate implements the anti-gaming admission decision for view
// attempts: a YouTube-style combination of a per-visitor cooldown and a
// per-visitor daily cap, keyed on the UTC calendar day.
//
// The gate is pure. It performs no I/O and holds no state of its own;
// loading and persisting VisitorState records is the tracker's job. The
// cooldown and cap checks are read-only against stored state — only
// admitted attempts produce an updated record, so a burst of rejected
// reloads can never extend a visitor's cooldown window.
package viewgate

import (
	"time"

	"github.com/viewgate/viewgate/internal/models"
)

// Default gate parameters.
const (
	// DefaultCooldown is the minimum elapsed time between two admitted
	// views from the same fingerprint. Guards against rapid reloads.
	DefaultCooldown = 30 * time.Second

	// DefaultDailyCap is the maximum number of admitted views per
	// fingerprint per UTC calendar day. Guards against a single visitor
	// inflating the count via repeated legitimate-looking visits.
	DefaultDailyCap = 5
)

// Gate decides whether a single view attempt counts toward the public
// total. The zero value is not usable; construct with New.
type Gate struct {
	cooldown time.Duration
	dailyCap int
}

// New returns a Gate with the given parameters. Non-positive values fall
// back to the defaults.
func New(cooldown time.Duration, dailyCap int) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if dailyCap <= 0 {
		dailyCap = DefaultDailyCap
	}
	return &Gate{cooldown: cooldown, dailyCap: dailyCap}
}

// Cooldown returns the configured cooldown window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// DailyCap returns the configured per-day admitted view cap.
func (g *Gate) DailyCap() int { return g.dailyCap }

// Admit evaluates one view attempt against the visitor's stored state.
//
// A nil state means this is the fingerprint's first-ever attempt for the
// content item: it is admitted unconditionally and a fresh record is
// produced. Otherwise the cooldown gate runs first, then the daily cap;
// either alone can reject. The cap is evaluated against the current UTC
// day — views from a previous day do not count, so the first attempt of
// a new day always clears the cap (though it can still fail the
// cooldown, which applies across the midnight boundary).
//
// The input state is never mutated. On admission the returned decision
// carries the updated record to persist; on rejection State is nil and
// nothing should be written.
func (g *Gate) Admit(state *models.VisitorState, visitorHash string, now time.Time) models.GateDecision {
	if state == nil {
		return models.GateDecision{
			Admit: true,
			State: &models.VisitorState{
				VisitorHash:  visitorHash,
				FirstSeenAt:  now,
				LastViewAt:   now,
				LastViewDate: DayKey(now),
				ViewsToday:   1,
				TotalViews:   1,
			},
		}
	}

	today := DayKey(now)
	viewsToday := state.ViewsToday
	if state.LastViewDate != today {
		viewsToday = 0
	}

	if now.Sub(state.LastViewAt) < g.cooldown {
		return models.GateDecision{Reason: models.RejectCooldown}
	}
	if viewsToday >= g.dailyCap {
		return models.GateDecision{Reason: models.RejectDailyCap}
	}

	updated := *state
	updated.LastViewAt = now
	updated.LastViewDate = today
	updated.ViewsToday = viewsToday + 1
	updated.TotalViews++

	return models.GateDecision{Admit: true, State: &updated}
}
