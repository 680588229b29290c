// Package server exposes the record store over HTTP (JSON and SSE) and serves
// the gRPC health service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/events"
	"github.com/alfredjeanlab/warroom/internal/identity"
	"github.com/alfredjeanlab/warroom/internal/metrics"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// Server serves the shared log to HTTP clients.
type Server struct {
	store     *store.Store
	identity  *identity.Store
	metrics   *metrics.Manager
	publisher events.Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	hub       *sseHub

	mu    sync.Mutex
	stops []func()
}

// Option configures a Server.
type Option func(*Server)

// WithIdentity supplies the device profile used for default reporter names
// and the default viewer zone.
func WithIdentity(id *identity.Store) Option {
	return func(s *Server) { s.identity = id }
}

// WithMetrics records per-route request metrics and serves /metrics.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) { s.metrics = m }
}

// WithPublisher announces created and deleted records on an event bus.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithClock overrides the wall clock.
func WithClock(clk clockwork.Clock) Option {
	return func(s *Server) { s.clock = clk }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server over st.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{
		store:     st,
		publisher: &events.NoopPublisher{},
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		hub:       newSSEHub(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start subscribes to store changes for every category so remote writes by
// other operators reach SSE clients. Under the local backend subscriptions
// never fire and the server's own writes are the only source of notices.
func (s *Server) Start(ctx context.Context) error {
	for _, c := range model.Categories {
		stop, err := s.store.SubscribeToChanges(ctx, c, func() {
			s.hub.notify(c, s.clock.Now())
		})
		if err != nil {
			s.Close()
			return fmt.Errorf("subscribe %s: %w", c, err)
		}
		s.mu.Lock()
		s.stops = append(s.stops, stop)
		s.mu.Unlock()
	}
	return nil
}

// Close detaches the store subscriptions.
func (s *Server) Close() {
	s.mu.Lock()
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

// changed notifies SSE clients of a write made through this server. Remote
// subscriptions already report it.
func (s *Server) changed(c model.Category) {
	if s.store.Mode() == store.ModeRemote {
		return
	}
	s.hub.notify(c, s.clock.Now())
}

// publish announces an event on the bus. Failures are logged and do not fail
// the request; the record is already stored.
func (s *Server) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}
