package remote

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, tree Tree) *store.Store {
	t.Helper()
	clk := clockwork.NewFakeClockAt(time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC))
	return store.New(New(tree, quietLogger(), WithClock(clk)), quietLogger())
}

func TestRemote_CreateListNewestFirst(t *testing.T) {
	tree := NewMemoryTree()
	s := newTestStore(t, tree)
	ctx := context.Background()
	base := time.Date(2025, 7, 4, 12, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 5; i++ {
		rec, err := s.Create(ctx, model.CategoryHostile, model.Record{
			SubjectTag:   "RedFox",
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
			Hostile:      model.HostileDragon,
			HostileLevel: 40 + i,
		})
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		ids = append(ids, rec.ID)
	}

	got, err := s.ListAll(ctx, model.CategoryHostile)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d records, want 5", len(got))
	}
	for i, rec := range got {
		if want := ids[4-i]; rec.ID != want {
			t.Errorf("position %d = %s, want %s", i, rec.ID, want)
		}
	}
	if got[0].HostileLevel != 44 {
		t.Errorf("HostileLevel = %d, want 44", got[0].HostileLevel)
	}
}

func TestRemote_NodesStoredUnderPathWithoutID(t *testing.T) {
	tree := NewMemoryTree()
	s := newTestStore(t, tree)
	rec, err := s.Create(context.Background(), model.CategoryResource, model.Record{
		SubjectTag: "RedFox", OccurredAt: time.Now(), Resource: model.ResourceWood,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	nodes, _ := tree.List(context.Background(), "gatherNodes", OrderChild)
	if len(nodes) != 1 || nodes[0].Key != rec.ID {
		t.Fatalf("nodes = %+v, want one node keyed %s", nodes, rec.ID)
	}
	if len(rec.ID) != 20 {
		t.Errorf("expected push key id, got %q", rec.ID)
	}
}

func TestRemote_DeleteIdempotent(t *testing.T) {
	s := newTestStore(t, NewMemoryTree())
	ctx := context.Background()
	rec, _ := s.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityRallying})

	for i := 0; i < 2; i++ {
		if err := s.Delete(ctx, model.CategoryPresence, rec.ID); err != nil {
			t.Fatalf("Delete #%d: %v", i+1, err)
		}
	}
	if got, _ := s.ListAll(ctx, model.CategoryPresence); len(got) != 0 {
		t.Errorf("got %d records after delete, want 0", len(got))
	}
}

func TestRemote_SubscribeFiresForOtherWriters(t *testing.T) {
	tree := NewMemoryTree()
	viewer := newTestStore(t, tree)
	writer := newTestStore(t, tree)
	ctx := context.Background()

	fired := make(chan struct{}, 8)
	stop, err := viewer.SubscribeToChanges(ctx, model.CategoryPresence, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("SubscribeToChanges: %v", err)
	}

	rec, _ := writer.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityOnline})
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("subscription did not fire on create")
	}

	// Writes to another category are not observed.
	_, _ = writer.Create(ctx, model.CategoryHostile, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Hostile: model.HostileGoblin})
	select {
	case <-fired:
		t.Fatal("subscription fired for another category")
	default:
	}

	stop()
	stop()
	_ = writer.Delete(ctx, model.CategoryPresence, rec.ID)
	select {
	case <-fired:
		t.Fatal("subscription fired after unsubscribe")
	default:
	}
}

func TestRemote_MalformedNodeEmptiesCategory(t *testing.T) {
	tree := NewMemoryTree()
	s := newTestStore(t, tree)
	ctx := context.Background()
	if _, err := s.Create(ctx, model.CategoryHostile, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Hostile: model.HostileTroll}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = tree.Create(ctx, "mobHits", "broken", []byte(`{"subjectTag":"x","occurredAtUtc":"not a time"}`))

	got, err := s.ListAll(ctx, model.CategoryHostile)
	if err != nil || len(got) != 0 {
		t.Errorf("ListAll = %d records, %v; want empty, nil", len(got), err)
	}
}

// failingTree fails every call.
type failingTree struct{ err error }

func (f failingTree) List(context.Context, string, string) ([]Node, error) { return nil, f.err }
func (f failingTree) Create(context.Context, string, string, []byte) error { return f.err }
func (f failingTree) Remove(context.Context, string, string) error         { return f.err }
func (f failingTree) Watch(context.Context, string, func()) (func(), error) {
	return nil, f.err
}
func (f failingTree) Close() error { return nil }

func TestRemote_TransportFailuresSurface(t *testing.T) {
	cause := errors.New("connection refused")
	s := newTestStore(t, failingTree{err: cause})
	ctx := context.Background()

	_, listErr := s.ListAll(ctx, model.CategoryPresence)
	_, createErr := s.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now()})
	deleteErr := s.Delete(ctx, model.CategoryPresence, "abc")
	_, subErr := s.SubscribeToChanges(ctx, model.CategoryPresence, func() {})

	for _, tc := range []struct {
		op  string
		err error
	}{
		{"list", listErr},
		{"create", createErr},
		{"delete", deleteErr},
		{"subscribe", subErr},
	} {
		if !errors.Is(tc.err, store.ErrRemote) {
			t.Errorf("%s: err = %v, want ErrRemote", tc.op, tc.err)
		}
		if !errors.Is(tc.err, cause) {
			t.Errorf("%s: err = %v, want to wrap cause", tc.op, tc.err)
		}
	}
}

func TestSortByChild(t *testing.T) {
	nodes := []Node{
		{Key: "c", Value: []byte(`{"occurredAtUtc":"2025-07-04T18:30:00.000Z"}`)},
		{Key: "a", Value: []byte(`{"occurredAtUtc":"2025-07-04T09:00:00.000Z"}`)},
		{Key: "b", Value: []byte(`{"occurredAtUtc":"2025-07-04T09:00:00.000Z"}`)},
		{Key: "z", Value: []byte(`{}`)},
	}
	SortByChild(nodes, OrderChild)
	var keys string
	for _, n := range nodes {
		keys += n.Key
	}
	if keys != "zabc" {
		t.Errorf("order = %s, want zabc", keys)
	}
}
