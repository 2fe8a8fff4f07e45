// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

// Command server runs the Viewgate HTTP server: anti-abuse view counting
// with milestone notifications.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/viewgate/viewgate/internal/api"
	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/logging"
	"github.com/viewgate/viewgate/internal/milestone"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/supervisor"
	"github.com/viewgate/viewgate/internal/supervisor/services"
	"github.com/viewgate/viewgate/internal/tracker"
	"github.com/viewgate/viewgate/internal/viewgate"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("starting viewgate")

	// Storage.
	st, err := store.Open(&cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Warn().Err(err).Msg("store close failed")
		}
	}()

	// Milestone event transport: in-process channel by default, NATS
	// JetStream when configured.
	wmLogger := logging.NewWatermillAdapter()
	var (
		eventPub message.Publisher
		eventSub message.Subscriber
		nats     *natsTransport
	)
	if cfg.NATS.Enabled {
		nats, err = initNATSTransport(&cfg.NATS, wmLogger)
		if err != nil {
			return fmt.Errorf("init NATS transport: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			nats.shutdown(ctx)
		}()
		eventPub = nats.publisher
		eventSub = nats.subscriber
	} else {
		channel := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, wmLogger)
		eventPub = channel
		eventSub = channel
	}

	// Milestone publisher with circuit breaker: a dead broker must fail
	// fast instead of stalling view recording.
	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "milestone-publisher",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	publisher := milestone.NewPublisher(eventPub, cfg.Milestone.Topic)
	publisher.SetCircuitBreaker(breaker)

	// Core pipeline.
	gate := viewgate.New(cfg.Gate.Cooldown, cfg.Gate.DailyCap)
	trk := tracker.New(gate, st, publisher)

	notifier := milestone.NewNotifier(
		eventSub,
		cfg.Milestone.Topic,
		st.Notifications,
		cfg.Milestone.NotifyRatePerSec,
		cfg.Milestone.NotifyBurst,
	)

	// HTTP surface.
	handler := api.NewHandler(trk, st, cfg)
	chiMw := api.NewChiMiddlewareFromConfig(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	router := api.NewRouter(handler, chiMw)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	// Supervision tree: store maintenance, notifier, HTTP server.
	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if cfg.Store.Path != "" {
		tree.AddDataService(services.NewBadgerGCService(st, cfg.Store.GCInterval))
	}
	tree.AddMessagingService(services.NewNotifierService(notifier))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("viewgate ready")

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if err := publisher.Close(); err != nil {
		logging.Warn().Err(err).Msg("milestone publisher close failed")
	}

	logging.Info().Msg("viewgate stopped")
	return nil
}
