package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the part of a NATS connection the bridge needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSBridge republishes lifecycle events on NATS subjects <prefix>.<type>.
type NATSBridge struct {
	publisher Publisher
	prefix    string
	logger    *zap.Logger
}

// ConnectNATS dials the server with reconnects enabled.
func ConnectNATS(url, token string, logger *zap.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("ticket-bot"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// NewNATSBridge builds a bridge publishing under prefix.
func NewNATSBridge(publisher Publisher, prefix string, logger *zap.Logger) *NATSBridge {
	if prefix == "" {
		prefix = "tickets"
	}
	return &NATSBridge{publisher: publisher, prefix: prefix, logger: logger}
}

// Subject returns the subject an event type is published on.
func (b *NATSBridge) Subject(eventType EventType) string {
	return b.prefix + "." + string(eventType)
}

// Register subscribes the bridge to every lifecycle event.
func (b *NATSBridge) Register(d Dispatcher) {
	SubscribeAll(d, b.forward)
}

func (b *NATSBridge) forward(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.publisher.Publish(b.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
