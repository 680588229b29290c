// Package sync periodically exports the record store to backup destinations.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/store"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store        *store.Store
	destinations []Destination
	interval     time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// lastBody is the record section of the last export every destination
	// accepted.
	mu       sync.Mutex
	synced   bool
	lastBody []byte
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s *store.Store, destinations []Destination, interval time.Duration, clk clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		clock:        clk,
		logger:       logger,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports once and writes to every destination. A failing
// destination does not stop the others. An export whose records match the
// last fully written one is skipped; the header timestamp is ignored.
func (s *Scheduler) SyncOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, s.clock.Now(), &buf); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return
	}
	data := buf.Bytes()
	body := exportBody(data)
	if s.synced && bytes.Equal(body, s.lastBody) {
		s.logger.Debug("sync skipped, records unchanged")
		return
	}

	failed := 0
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
		}
	}

	if failed == 0 {
		s.synced, s.lastBody = true, bytes.Clone(body)
	}
	s.logger.Info("sync completed", "destinations", len(s.destinations), "failed", failed, "bytes", len(data))
}

// exportBody strips the header line from an ExportJSONL payload.
func exportBody(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}
