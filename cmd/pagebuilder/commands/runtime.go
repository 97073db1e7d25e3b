package commands

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/pagebuilder/internal/build"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/eventstore"
	"git.home.luguber.info/inful/pagebuilder/internal/linkverify"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/retry"
)

const historyProjectionSize = 200

// runtime holds the batch service and the collaborators enabled in the
// configuration.
type runtime struct {
	service    *build.Service
	store      eventstore.Store
	projection *eventstore.HistoryProjection
	registry   *prometheus.Registry
	publisher  linkverify.Publisher
}

// newRuntime wires the batch service. Collaborators that fail to start are
// logged and left out; a batch never depends on them.
func newRuntime(ctx context.Context, cfg *config.Config) *runtime {
	rt := &runtime{service: build.NewService()}

	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rt.service.WithRecorder(metrics.NewPrometheusRecorder(rt.registry, cfg.Metrics.Namespace))
	}

	if cfg.History.Enabled {
		if err := rt.openHistory(ctx, cfg.History.Path); err != nil {
			slog.Warn("Build history unavailable", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			rt.service.WithHistory(rt.store, rt.projection)
		}
	}

	if cfg.Events.Enabled {
		pub, err := linkverify.NewNATSPublisher(ctx, cfg.Events)
		if err != nil {
			slog.Warn("Link integrity events unavailable", logfields.Error(err))
		} else {
			policy := retry.NewPolicy(retry.BackoffMode(cfg.Events.Backoff), 0, 0, cfg.Events.MaxRetries)
			rt.publisher = linkverify.WithRetry(pub, policy)
			rt.service.WithPublisher(rt.publisher)
		}
	}
	return rt
}

func (rt *runtime) openHistory(ctx context.Context, path string) error {
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	projection := eventstore.NewHistoryProjection(store, historyProjectionSize)
	if err := projection.Rebuild(ctx); err != nil {
		_ = store.Close()
		return err
	}
	rt.store = store
	rt.projection = projection
	return nil
}

func (rt *runtime) Close() {
	if rt.publisher != nil {
		if err := rt.publisher.Close(); err != nil {
			slog.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close history store", logfields.Error(err))
		}
	}
}
