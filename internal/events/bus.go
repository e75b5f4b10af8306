// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/cargomap/internal/cache"
	"github.com/tomtom215/cargomap/internal/logging"
	"github.com/tomtom215/cargomap/internal/metrics"
)

// Backends
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus is closed")

// NATSConfig configures the NATS backend.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
	CloseTimeout  time.Duration
}

// Config selects and tunes the bus backend.
type Config struct {
	Backend string
	NATS    NATSConfig

	// BufferSize is the gochannel per-subscriber buffer.
	BufferSize int64
}

// Bus publishes and subscribes refresh events.
type Bus struct {
	backend    string
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewBus creates a bus for cfg.Backend. An empty backend means gochannel.
func NewBus(cfg Config) (*Bus, error) {
	logger := watermill.NewSlogLogger(logging.NewComponentSlogLogger("events"))

	switch cfg.Backend {
	case "", BackendGoChannel:
		return newGoChannelBus(cfg.BufferSize, logger), nil
	case BackendNATS:
		return newNATSBus(cfg.NATS, logger)
	default:
		return nil, fmt.Errorf("unknown event backend %q", cfg.Backend)
	}
}

// NewInMemoryBus creates a gochannel bus.
func NewInMemoryBus() *Bus {
	return newGoChannelBus(0, watermill.NewSlogLogger(logging.NewComponentSlogLogger("events")))
}

func newGoChannelBus(buffer int64, logger watermill.LoggerAdapter) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger)
	return &Bus{
		backend:    BackendGoChannel,
		publisher:  ch,
		subscriber: ch,
		logger:     logger,
	}
}

func newNATSBus(cfg NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if cfg.URL == "" {
		cfg.URL = natsgo.DefaultURL
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("cargomap"),
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
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		AckWaitTimeout:   30 * time.Second,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	return &Bus{
		backend:    BackendNATS,
		publisher:  pub,
		subscriber: sub,
		logger:     logger,
	}, nil
}

// Backend reports the active backend name.
func (b *Bus) Backend() string {
	return b.backend
}

// Publish sends msg on topic.
func (b *Bus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	msg.SetContext(ctx)
	err := b.publisher.Publish(topic, msg)
	metrics.RecordEventPublish(topic, err)
	return err
}

// PublishRefresh publishes the event describing res.
func (b *Bus) PublishRefresh(ctx context.Context, res cache.Result) error {
	ev := NewRefreshEvent(res)
	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(ev.EventID, data)
	msg.Metadata.Set("success", strconv.FormatBool(ev.Success))
	if cid := logging.CorrelationIDFromContext(ctx); cid != "" {
		msg.Metadata.Set("correlation_id", cid)
	}

	return b.Publish(ctx, ev.Topic(), msg)
}

// OnRefreshed returns a callback for refresh.Manager.SetOnRefreshed that
// publishes every result and logs publish failures.
func (b *Bus) OnRefreshed() func(cache.Result) {
	return func(res cache.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.PublishRefresh(ctx, res); err != nil {
			logging.Warn().Err(err).Msg("failed to publish refresh event")
		}
	}
}

// Subscribe returns the message stream for topic. Messages must be acked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.subscriber.Subscribe(ctx, topic)
}

// Close shuts the publisher and subscriber down. It is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	pubErr := b.publisher.Close()
	if b.backend == BackendGoChannel {
		// gochannel is one object serving both roles
		return pubErr
	}
	return errors.Join(pubErr, b.subscriber.Close())
}
