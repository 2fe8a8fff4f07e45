// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package milestone detects view-count milestone crossings and carries
// the resulting events through a fire-and-forget pub/sub handoff to a
// notification writer.
//
// Because the public counter is monotonic with step size 1, each
// threshold value is visited at most once in a counter's lifetime, so
// exact-landing detection needs no "already notified" bookkeeping. If
// the counter could ever be decremented and re-incremented (unsupported
// here), duplicate notifications could occur; that is an accepted
// limitation of the design.
package milestone

// Thresholds is the fixed ordered set of counter values that trigger a
// one-shot notification to the content owner.
var Thresholds = []int64{100, 500, 1000, 5000, 10000, 50000, 100000}

// Crossed reports whether a single increment from before to after landed
// exactly on a milestone, and which one. Only the post-increment value is
// tested for membership: an increment from 99 to 100 crosses 100, an
// increment from 100 to 101 crosses nothing.
func Crossed(before, after int64) (int64, bool) {
	if after <= before {
		return 0, false
	}
	for _, t := range Thresholds {
		if after == t {
			return t, true
		}
		if t > after {
			break
		}
	}
	return 0, false
}
