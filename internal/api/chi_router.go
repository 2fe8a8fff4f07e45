// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viewgate/viewgate/internal/middleware"
)

// Router wires handlers and middleware into the Chi routing tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given handler and middleware
// factory.
func NewRouter(handler *Handler, cm *ChiMiddleware) *Router {
	if cm == nil {
		cm = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: cm}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS must be
	// global to handle OPTIONS preflight.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	// Health probes: permissive rate limit for monitoring tools.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	// View endpoints. Recording is limited harder than reading: the
	// fingerprint gate handles dedup, the IP limit blunts raw floods.
	r.Route("/api/v1/views", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.Prometheus)
		r.With(router.chiMiddleware.RateLimitRecord()).Post("/{contentID}", router.handler.RecordView)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/{contentID}", router.handler.GetViewCount)
	})

	// Content registration endpoints.
	r.Route("/api/v1/content", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.Prometheus)
		r.With(router.chiMiddleware.RateLimitWrite()).Put("/{contentID}", router.handler.RegisterContent)
		r.With(router.chiMiddleware.RateLimitRead()).Get("/{contentID}", router.handler.GetContent)
	})

	// Notification listing.
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitRead())
		r.Use(APISecurityHeaders())
		r.Use(middleware.Prometheus)
		r.Get("/", router.handler.ListNotifications)
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
