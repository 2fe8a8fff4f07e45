// Viewgate - Anti-Abuse View Counting and Milestone Notifications
// Copyright 2026 Viewgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewgate/viewgate

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/logging"
)

// natsTransport bundles the optional NATS pieces so shutdown can tear
// them down in order.
type natsTransport struct {
	embedded   *server.Server
	publisher  message.Publisher
	subscriber message.Subscriber
}

// initNATSTransport builds the milestone event transport over NATS
// JetStream, optionally starting an embedded server first for
// single-binary deployments.
func initNATSTransport(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*natsTransport, error) {
	t := &natsTransport{}

	url := cfg.URL
	if cfg.EmbeddedServer {
		ns, err := startEmbeddedNATS(cfg)
		if err != nil {
			return nil, err
		}
		t.embedded = ns
		url = ns.ClientURL()
		logging.Info().Str("url", url).Msg("embedded NATS server started")
	} else {
		logging.Info().Str("url", url).Msg("using external NATS server")
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			// Message UUID doubles as Nats-Msg-Id so JetStream dedups
			// replayed milestone events.
			TrackMsgId: true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		t.shutdown(context.Background())
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	t.publisher = pub

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		t.shutdown(context.Background())
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	t.subscriber = sub

	return t, nil
}

// startEmbeddedNATS boots an in-process NATS server with JetStream.
func startEmbeddedNATS(cfg *config.NATSConfig) (*server.Server, error) {
	opts := &server.Options{
		ServerName: "viewgate-events",
		Host:       "127.0.0.1",
		Port:       4222,
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		NoLog:      true,
		MaxPayload: 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}
	return ns, nil
}

// shutdown tears down the transport. The publisher is not closed here;
// the milestone publisher wrapping it owns that close.
func (t *natsTransport) shutdown(ctx context.Context) {
	if t.subscriber != nil {
		if err := t.subscriber.Close(); err != nil {
			logging.Warn().Err(err).Msg("NATS subscriber close failed")
		}
	}
	if t.embedded != nil {
		t.embedded.Shutdown()
		done := make(chan struct{})
		go func() {
			t.embedded.WaitForShutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			logging.Warn().Msg("embedded NATS server shutdown timed out")
		}
	}
}
