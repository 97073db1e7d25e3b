package linkverify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/retry"
)

// Publisher delivers link integrity findings outside the process.
type Publisher interface {
	// Publish emits one finding.
	Publish(ctx context.Context, ev *Event) error
	// RecordPage replaces the stored findings for page. An empty list clears it.
	RecordPage(ctx context.Context, page string, events []*Event) error
	Close() error
}

// NoopPublisher discards everything.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *Event) error              { return nil }
func (NoopPublisher) RecordPage(context.Context, string, []*Event) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// PublishBatch publishes every link integrity error in errs and records the
// per-page state for each page in pages, clearing pages without findings.
func PublishBatch(ctx context.Context, pub Publisher, batchID string, pages []string, errs []error) error {
	now := time.Now().UTC()
	grouped := GroupByPage(batchID, errs)

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, ev := range grouped[key] {
			ev.Timestamp = now
			if err := pub.Publish(ctx, ev); err != nil {
				return fmt.Errorf("publish link event for %s: %w", key, err)
			}
		}
	}
	for _, page := range pages {
		if err := pub.RecordPage(ctx, page, grouped[page]); err != nil {
			return fmt.Errorf("record link state for %s: %w", page, err)
		}
	}
	return nil
}

// RetryingPublisher retries failed deliveries of the wrapped publisher.
type RetryingPublisher struct {
	Publisher
	policy retry.Policy
}

// WithRetry wraps pub so each delivery is retried according to policy.
func WithRetry(pub Publisher, policy retry.Policy) *RetryingPublisher {
	return &RetryingPublisher{Publisher: pub, policy: policy}
}

func (r *RetryingPublisher) Publish(ctx context.Context, ev *Event) error {
	return r.policy.Do(ctx, "publish link event", func(ctx context.Context) error {
		return r.Publisher.Publish(ctx, ev)
	})
}

func (r *RetryingPublisher) RecordPage(ctx context.Context, page string, events []*Event) error {
	return r.policy.Do(ctx, "record link state", func(ctx context.Context) error {
		return r.Publisher.RecordPage(ctx, page, events)
	})
}
