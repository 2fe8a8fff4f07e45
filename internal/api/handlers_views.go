// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package api

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/viewgate/viewgate/internal/fingerprint"
	"github.com/viewgate/viewgate/internal/logging"
	"github.com/viewgate/viewgate/internal/models"
)

// viewRequest carries the validated path input for both view endpoints.
type viewRequest struct {
	ContentID string `validate:"required,min=1,max=256"`
}

// RecordView handles POST /api/v1/views/{contentID}.
//
// The response is identical in shape whether the attempt was admitted or
// deduplicated; callers always receive the current total. Rejection is
// not an error and is never surfaced to the client.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := viewRequest{ContentID: chi.URLParam(r, "contentID")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	visitorHash := fingerprint.FromRequest(r)

	result, err := h.tracker.Record(r.Context(), req.ContentID, visitorHash, time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeStorage, "failed to record view", err)
		return
	}

	logging.Debug().
		Str("content_id", sanitizeLogValue(req.ContentID)).
		Str("visitor_hash", visitorHash).
		Bool("admitted", result.Admitted).
		Str("reject_reason", string(result.Rejection)).
		Int64("count", result.Count).
		Msg("view attempt processed")

	respondSuccess(w, http.StatusOK, &models.ViewCountResponse{
		ContentID:      req.ContentID,
		Count:          result.Count,
		CountFormatted: humanize.Comma(result.Count),
	}, started)
}

// GetViewCount handles GET /api/v1/views/{contentID}.
//
// Reading a count never records a view. Unknown content returns 0 rather
// than 404: a counter that has simply not been created yet is
// indistinguishable from one with no admitted views.
func (h *Handler) GetViewCount(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := viewRequest{ContentID: chi.URLParam(r, "contentID")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	count, err := h.tracker.Count(r.Context(), req.ContentID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeStorage, "failed to read view count", err)
		return
	}

	respondSuccess(w, http.StatusOK, &models.ViewCountResponse{
		ContentID:      req.ContentID,
		Count:          count,
		CountFormatted: humanize.Comma(count),
	}, started)
}
