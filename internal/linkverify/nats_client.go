package linkverify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

const streamName = "PAGEBUILDER_LINKS"

// NATSPublisher publishes findings to a JetStream subject and keeps the latest
// findings per page in a KV bucket.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
}

// NewNATSPublisher connects to NATS and prepares the stream and KV bucket.
func NewNATSPublisher(ctx context.Context, cfg config.EventsConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, errors.New("events are disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("pagebuilder"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := js.CreateOrUpdateStream(setupCtx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{cfg.Subject},
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	kv, err := js.KeyValue(setupCtx, cfg.KVBucket)
	if err != nil {
		kv, err = js.CreateKeyValue(setupCtx, jetstream.KeyValueConfig{
			Bucket:      cfg.KVBucket,
			Description: "Current link integrity findings per page",
			History:     1,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create KV bucket: %w", err)
		}
		slog.Info("Created KV bucket for link findings", "bucket", cfg.KVBucket)
	}

	slog.Info("NATS publisher initialized for link integrity",
		"url", cfg.NATSURL,
		"subject", cfg.Subject,
		"kv_bucket", cfg.KVBucket)

	return &NATSPublisher{conn: conn, js: js, kv: kv, subject: cfg.Subject}, nil
}

// Publish sends one finding to the configured subject.
func (p *NATSPublisher) Publish(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(pubCtx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	slog.Debug("Published link integrity event", "page", ev.Page, "anchor", ev.Anchor)
	return nil
}

// RecordPage stores the page's findings, or deletes its key when there are none.
func (p *NATSPublisher) RecordPage(ctx context.Context, page string, events []*Event) error {
	key := KVKey(page)
	kvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if len(events) == 0 {
		err := p.kv.Delete(kvCtx, key)
		if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("failed to clear findings: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}
	if _, err := p.kv.Put(kvCtx, key, data); err != nil {
		return fmt.Errorf("failed to store findings: %w", err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

// KVKey maps a page URL onto a valid KV key.
func KVKey(page string) string {
	page = strings.Trim(page, "/.")
	if page == "" {
		return "root"
	}
	var b strings.Builder
	for _, r := range page {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '/', r == '=':
			b.WriteRune(r)
		case r == '.':
			b.WriteByte('_')
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
