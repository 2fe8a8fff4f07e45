// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package fingerprint derives stable, non-reversible visitor identifiers
// from connection metadata. The identifier exists purely to deduplicate
// views; it is never used to identify a person and cannot be reversed to
// the raw address or user-agent.
//
// Visitors behind a shared NAT or proxy with identical user-agents
// collapse to a single fingerprint. That collision is an accepted
// limitation of the scheme, not a defect.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// unknownValue substitutes for absent address or user-agent material so
// that the fingerprint is always defined.
const unknownValue = "unknown"

// hashLength is the number of hex characters retained from the digest.
// 16 hex chars (64 bits) keeps keys compact while making accidental
// collisions between distinct (address, user-agent) pairs negligible at
// per-content visitor cardinalities.
const hashLength = 16

// Derive computes the visitor fingerprint for an (address, user-agent)
// pair: SHA-256 over "address:userAgent", hex-encoded and truncated.
// Deterministic, never fails.
func Derive(address, userAgent string) string {
	if address == "" {
		address = unknownValue
	}
	if userAgent == "" {
		userAgent = unknownValue
	}

	sum := sha256.Sum256([]byte(address + ":" + userAgent))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// FromRequest extracts the origin address and user-agent from an HTTP
// request and derives the fingerprint.
//
// The origin address is the first entry of X-Forwarded-For when a
// forwarded chain is present, otherwise the direct peer address with any
// port stripped.
func FromRequest(r *http.Request) string {
	return Derive(originAddress(r), r.UserAgent())
}

// originAddress resolves the client address for fingerprinting purposes.
func originAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			first = fwd[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if r.RemoteAddr == "" {
		return unknownValue
	}

	// RemoteAddr is host:port for TCP peers; fall back to the raw value
	// for non-standard forms (e.g. unix sockets in tests).
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
