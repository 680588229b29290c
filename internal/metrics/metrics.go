// Package metrics exposes Prometheus metrics for record store traffic and
// the HTTP API.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// Manager owns the metric collectors and the registry they live in.
type Manager struct {
	registry *prometheus.Registry

	storeOps        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	subscriptions   *prometheus.GaugeVec
	changesObserved *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Manager.
type Option func(*config)

type config struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry
}

// WithNamespace sets the metric namespace (default "warroom").
func WithNamespace(ns string) Option {
	return func(c *config) { c.namespace = ns }
}

// WithHistogramBuckets overrides the latency buckets.
func WithHistogramBuckets(b []float64) Option {
	return func(c *config) { c.buckets = b }
}

// WithRegistry registers collectors in r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(c *config) { c.registry = r }
}

// NewManager creates and registers all collectors.
func NewManager(opts ...Option) *Manager {
	cfg := config{namespace: "warroom", buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}

	m := &Manager{
		registry: cfg.registry,
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Record store operations by backend, operation, category and result.",
		}, []string{"mode", "op", "category", "result"}),
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Record store operation latency.",
			Buckets:   cfg.buckets,
		}, []string{"mode", "op"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.namespace,
			Subsystem: "store",
			Name:      "subscriptions_active",
			Help:      "Change subscriptions currently attached.",
		}, []string{"category"}),
		changesObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: "store",
			Name:      "changes_observed_total",
			Help:      "Change notifications delivered to subscribers.",
		}, []string{"category"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   cfg.buckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.storeOps, m.storeLatency, m.subscriptions, m.changesObserved,
		m.httpRequests, m.httpRequestDuration,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Manager) ObserveHTTP(route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrRemote):
		return "remote_error"
	default:
		return "error"
	}
}

// Instrument wraps an adapter so every call is counted and timed.
func (m *Manager) Instrument(a store.Adapter) store.Adapter {
	return &instrumented{Adapter: a, m: m}
}

type instrumented struct {
	store.Adapter
	m *Manager
}

func (i *instrumented) observe(op string, c model.Category, start time.Time, err error) {
	mode := string(i.Adapter.Mode())
	i.m.storeOps.WithLabelValues(mode, op, string(c), result(err)).Inc()
	i.m.storeLatency.WithLabelValues(mode, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) List(ctx context.Context, c model.Category) ([]model.Record, error) {
	start := time.Now()
	recs, err := i.Adapter.List(ctx, c)
	i.observe("list", c, start, err)
	return recs, err
}

func (i *instrumented) Put(ctx context.Context, c model.Category, r model.Record) error {
	start := time.Now()
	err := i.Adapter.Put(ctx, c, r)
	i.observe("create", c, start, err)
	return err
}

func (i *instrumented) Delete(ctx context.Context, c model.Category, id string) error {
	start := time.Now()
	err := i.Adapter.Delete(ctx, c, id)
	i.observe("delete", c, start, err)
	return err
}

func (i *instrumented) Subscribe(ctx context.Context, c model.Category, onChange func()) (func(), error) {
	changes := i.m.changesObserved.WithLabelValues(string(c))
	stop, err := i.Adapter.Subscribe(ctx, c, func() {
		changes.Inc()
		onChange()
	})
	if err != nil {
		return nil, err
	}
	gauge := i.m.subscriptions.WithLabelValues(string(c))
	gauge.Inc()
	return func() {
		stop()
		gauge.Dec()
	}, nil
}
