// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package api

import (
	"net/http"
	"time"
)

// listNotificationsRequest is the validated query input for the
// notification listing endpoint.
type listNotificationsRequest struct {
	OwnerID string `validate:"required,min=1,max=256"`
	Limit   int    `validate:"gte=1,lte=200"`
}

// notificationsResponse wraps the listing so the envelope's data field
// stays an object even when the list is empty.
type notificationsResponse struct {
	OwnerID       string      `json:"owner_id"`
	Notifications interface{} `json:"notifications"`
	Count         int         `json:"count"`
}

// ListNotifications handles GET /api/v1/notifications?owner=&limit=.
// Results are newest first, bounded by limit (default 50, max 200).
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req := listNotificationsRequest{
		OwnerID: r.URL.Query().Get("owner"),
		Limit:   getIntParam(r, "limit", 50),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	notifications, err := h.notifications.ListByOwner(r.Context(), req.OwnerID, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeStorage, "failed to list notifications", err)
		return
	}

	respondSuccess(w, http.StatusOK, &notificationsResponse{
		OwnerID:       req.OwnerID,
		Notifications: notifications,
		Count:         len(notifications),
	}, started)
}
