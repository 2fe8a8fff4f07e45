// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Package metrics provides Prometheus instrumentation for the view
// pipeline: admission decisions, counter mutations, milestone emission,
// notification delivery, and API request latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// View pipeline metrics

	ViewsAdmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewgate_views_admitted_total",
			Help: "Total number of view attempts admitted by the gate",
		},
	)

	ViewsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewgate_views_rejected_total",
			Help: "Total number of view attempts rejected by the gate",
		},
		[]string{"reason"}, // "cooldown", "daily_cap"
	)

	CounterIncrementRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewgate_counter_increment_retries_total",
			Help: "Total number of transaction conflicts retried during counter increments",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewgate_store_errors_total",
			Help: "Total number of store operation failures",
		},
		[]string{"operation"}, // "visitor_get", "visitor_put", "counter_increment", ...
	)

	// Milestone metrics

	MilestonesEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewgate_milestones_emitted_total",
			Help: "Total number of milestone events published",
		},
		[]string{"milestone"},
	)

	MilestonePublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewgate_milestone_publish_failures_total",
			Help: "Total number of milestone events dropped because publishing failed",
		},
	)

	NotificationsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "viewgate_notifications_written_total",
			Help: "Total number of milestone notifications written to the store",
		},
	)

	// API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewgate_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viewgate_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "viewgate_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRejection records a gate rejection with its reason.
func RecordRejection(reason string) {
	ViewsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordStoreError records a failed store operation.
func RecordStoreError(operation string) {
	StoreErrorsTotal.WithLabelValues(operation).Inc()
}
