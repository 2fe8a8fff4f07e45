// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/viewgate/viewgate/internal/logging"
	"github.com/viewgate/viewgate/internal/models"
	"github.com/viewgate/viewgate/internal/store"
)

// registerContentRequest is the body of PUT /api/v1/content/{contentID}.
type registerContentRequest struct {
	OwnerID string `json:"owner_id" validate:"required,min=1,max=256"`
	Title   string `json:"title" validate:"max=512"`
}

// RegisterContent handles PUT /api/v1/content/{contentID}.
//
// Registration attaches an owner to a content item so milestone
// crossings can be addressed. It is idempotent; re-registering updates
// the owner and title. Views recorded before registration are retained,
// but milestones crossed before registration are gone for good.
func (h *Handler) RegisterContent(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	pathReq := viewRequest{ContentID: chi.URLParam(r, "contentID")}
	if apiErr := validateRequest(&pathReq); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	var req registerContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	content := &models.Content{
		ContentID: pathReq.ContentID,
		OwnerID:   req.OwnerID,
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.contents.Put(r.Context(), content); err != nil {
		respondError(w, http.StatusInternalServerError, codeStorage, "failed to register content", err)
		return
	}

	logging.Info().
		Str("content_id", sanitizeLogValue(content.ContentID)).
		Str("owner_id", sanitizeLogValue(content.OwnerID)).
		Msg("content registered")

	respondSuccess(w, http.StatusOK, content, started)
}

// GetContent handles GET /api/v1/content/{contentID}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := viewRequest{ContentID: chi.URLParam(r, "contentID")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	content, err := h.contents.Get(r.Context(), req.ContentID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, codeNotFound, "content not registered", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeStorage, "failed to read content", err)
		return
	}

	respondSuccess(w, http.StatusOK, content, started)
}
