// Package nats implements the notifier port over NATS JetStream and
// provisions the KV bucket used by the idempotency middleware.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/atelierhq/atelier/internal/port/notifier"
)

const streamName = "ATELIER"

// Conn wraps a NATS connection with a JetStream context.
type Conn struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the notification
// stream exists.
func Connect(ctx context.Context, url string) (*Conn, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"notify.>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Conn{nc: nc, js: js}, nil
}

// KeyValue creates or opens a JetStream KV bucket with the given TTL.
func (c *Conn) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := c.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		return nil, fmt.Errorf("jetstream kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Close shuts down the NATS connection.
func (c *Conn) Close() error {
	c.nc.Close()
	return nil
}

// Notifier publishes outcome notifications to JetStream subjects of the
// form "notify.<tenant>.<source>".
type Notifier struct {
	conn *Conn
}

var _ notifier.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier on top of an established connection.
func NewNotifier(conn *Conn) *Notifier {
	return &Notifier{conn: conn}
}

// Name returns the notifier identifier.
func (n *Notifier) Name() string { return "nats" }

// Send publishes one notification. Delivery is at-least-once; consumers
// must tolerate duplicates.
func (n *Notifier) Send(ctx context.Context, notification notifier.Notification) error {
	if n.conn == nil {
		return notifier.ErrNotConfigured
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	tenant := notification.TenantID
	if tenant == "" {
		tenant = "global"
	}
	subject := "notify." + tenant + "." + notification.Source
	if _, err := n.conn.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}
