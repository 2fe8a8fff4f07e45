// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package api

import (
	"net/http"
	"time"

	"github.com/viewgate/viewgate/internal/models"
)

// healthResponse is the body of the general health endpoint.
type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Store         string `json:"store"`
}

// Health handles GET /api/v1/health. Reports overall status including a
// store probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	storeStatus := "ok"
	status := "healthy"
	httpStatus := http.StatusOK
	if err := h.store.Ping(); err != nil {
		storeStatus = err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondSuccess(w, httpStatus, &healthResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Store:         storeStatus,
	}, started)
}

// HealthLive handles GET /api/v1/health/live. Liveness only proves the
// process is serving; it must not depend on the store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Readiness requires the
// store to answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeStorage, "store not ready", err)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
