// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package viewgate

import "time"

// DayKey returns the canonical UTC calendar-day key (YYYY-MM-DD,
// zero-padded) used to decide when a visitor's daily counter resets.
// Pure function; the input is normalized to UTC before formatting so the
// caller's location never leaks into the key.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
