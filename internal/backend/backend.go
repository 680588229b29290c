// Package backend selects and opens the record store backend once at startup.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/warroom/internal/config"
	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/metrics"
	"github.com/alfredjeanlab/warroom/internal/store"
	"github.com/alfredjeanlab/warroom/internal/store/local"
	"github.com/alfredjeanlab/warroom/internal/store/remote"
	"github.com/alfredjeanlab/warroom/internal/store/remote/natskv"
	"github.com/alfredjeanlab/warroom/internal/store/remote/postgres"
)

// Kind names a concrete backend driver.
type Kind string

const (
	KindLocal    Kind = "local"
	KindNATS     Kind = "nats"
	KindPostgres Kind = "postgres"
)

// Select decides which driver a configuration calls for.
func Select(cfg *config.Config) (Kind, error) {
	if !cfg.RemoteEnabled() {
		return KindLocal, nil
	}
	u, err := url.Parse(strings.TrimSpace(cfg.RemoteURL))
	if err != nil {
		return "", fmt.Errorf("remote url: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls":
		return KindNATS, nil
	case "postgres", "postgresql":
		return KindPostgres, nil
	default:
		return "", fmt.Errorf("remote url: unsupported scheme %q", u.Scheme)
	}
}

type options struct {
	metrics *metrics.Manager
}

// Option configures Open.
type Option func(*options)

// WithMetrics instruments the chosen adapter.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *options) { o.metrics = m }
}

// Open builds the record store for cfg. slots is the device slot store; it
// backs records only when no remote is configured.
func Open(ctx context.Context, cfg *config.Config, slots kv.Slots, logger *slog.Logger, opts ...Option) (*store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	kind, err := Select(cfg)
	if err != nil {
		return nil, err
	}

	var adapter store.Adapter
	switch kind {
	case KindLocal:
		adapter = local.New(slots, logger)
	case KindNATS:
		tree, err := natskv.Open(ctx, natskv.Config{
			URL:    cfg.RemoteURL,
			Token:  cfg.RemoteToken,
			Bucket: cfg.RemoteBucket,
		}, logger)
		if err != nil {
			return nil, err
		}
		adapter = remote.New(tree, logger)
	case KindPostgres:
		tree, err := postgres.Open(cfg.RemoteURL, logger)
		if err != nil {
			return nil, err
		}
		adapter = remote.New(tree, logger)
	}

	if o.metrics != nil {
		adapter = o.metrics.Instrument(adapter)
	}
	logger.Info("record store ready", "backend", kind, "mode", adapter.Mode())
	return store.New(adapter, logger), nil
}
