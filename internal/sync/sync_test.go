package sync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/model"
)

// mockDestination records calls to Write.
type mockDestination struct {
	name   string
	err    error
	writes atomic.Int64
	last   atomic.Value // []byte
}

func (d *mockDestination) Name() string { return d.name }

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForWrites(t *testing.T, d *mockDestination, n int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for d.writes.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("%s: expected at least %d writes, got %d", d.name, n, d.writes.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, model.CategoryPresence, model.Record{
		SubjectTag: "RedFox", OccurredAt: time.Now(), Activity: model.ActivityScouting,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	clk := clockwork.NewFakeClock()
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(s, []Destination{dest}, time.Minute, clk, quietLogger())
	sched.Start(ctx)
	defer sched.Stop()

	// Initial sync runs before the first tick.
	waitForWrites(t, dest, 1)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := clk.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("ticker never armed: %v", err)
	}
	if _, err := s.Create(ctx, model.CategoryHostile, model.Record{
		SubjectTag: "RedFox", OccurredAt: time.Now(), HostileLevel: 3, Hostile: model.HostileTroll,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(time.Minute)
	waitForWrites(t, dest, 2)

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 2 records.
	if lines := nonEmptyLines(string(data)); len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
}

func TestSyncOnce_SkipsUnchangedRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clk := clockwork.NewFakeClock()
	dest := &mockDestination{name: "mock"}
	sched := NewScheduler(s, []Destination{dest}, time.Minute, clk, quietLogger())

	sched.SyncOnce(ctx)
	clk.Advance(time.Minute)
	sched.SyncOnce(ctx)
	if got := dest.writes.Load(); got != 1 {
		t.Fatalf("writes after unchanged export = %d, want 1", got)
	}

	if _, err := s.Create(ctx, model.CategoryResource, model.Record{
		SubjectTag: "RedFox", OccurredAt: clk.Now(), NodeLevel: 5, Resource: model.ResourceGold,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	sched.SyncOnce(ctx)
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("writes after new record = %d, want 2", got)
	}
}

func TestSyncOnce_RetriesAfterFailure(t *testing.T) {
	dest := &mockDestination{name: "flaky", err: errors.New("timeout")}
	sched := NewScheduler(newTestStore(t), []Destination{dest}, time.Minute, clockwork.NewFakeClock(), quietLogger())

	sched.SyncOnce(context.Background())
	sched.SyncOnce(context.Background())
	if got := dest.writes.Load(); got != 2 {
		t.Fatalf("writes = %d, want 2 (failed export retried)", got)
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := NewScheduler(newTestStore(t), nil, time.Minute, nil, quietLogger())
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerMultipleDestinations(t *testing.T) {
	s := newTestStore(t)
	failing := &mockDestination{name: "failing", err: errors.New("bucket gone")}
	healthy := &mockDestination{name: "healthy"}

	sched := NewScheduler(s, []Destination{failing, healthy}, time.Minute, clockwork.NewFakeClock(), quietLogger())
	sched.SyncOnce(context.Background())

	if failing.writes.Load() != 1 {
		t.Fatalf("failing: writes = %d, want 1", failing.writes.Load())
	}
	if healthy.writes.Load() != 1 {
		t.Fatalf("healthy: writes = %d, want 1", healthy.writes.Load())
	}
}
