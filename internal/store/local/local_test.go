package local

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, *kv.Memory) {
	t.Helper()
	slots := kv.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(New(slots, logger), logger), slots
}

func sighting(subject string, at time.Time) model.Record {
	return model.Record{
		SubjectTag: subject,
		OccurredAt: at,
		NodeLevel:  18,
		Resource:   model.ResourceIron,
		Coords:     model.Optional("K:12 X:300 Y:411"),
	}
}

func TestTwoCreates_SecondFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)

	first, err := s.Create(ctx, model.CategoryResource, sighting("RedFox", base))
	if err != nil {
		t.Fatalf("Create #1: %v", err)
	}
	second, err := s.Create(ctx, model.CategoryResource, sighting("BlueJay", base.Add(time.Minute)))
	if err != nil {
		t.Fatalf("Create #2: %v", err)
	}

	got, err := s.ListAll(ctx, model.CategoryResource)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, second.ID, first.ID)
	}
	if got[0].CoordsText() != "K:12 X:300 Y:411" {
		t.Errorf("coords not persisted: %+v", got[0])
	}
}

func TestMonotonicCreates_ReverseOrder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []string
	for i := 0; i < 20; i++ {
		rec, err := s.Create(ctx, model.CategoryPresence, model.Record{
			SubjectTag: "RedFox",
			OccurredAt: base.Add(time.Duration(i) * time.Hour),
			Activity:   model.ActivityScouting,
		})
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		ids = append(ids, rec.ID)
	}
	got, err := s.ListAll(ctx, model.CategoryPresence)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	for i, rec := range got {
		if want := ids[len(ids)-1-i]; rec.ID != want {
			t.Fatalf("position %d = %s, want %s", i, rec.ID, want)
		}
	}
}

func TestBackdatedCreate_StillNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)

	recent, _ := s.Create(ctx, model.CategoryHostile, model.Record{SubjectTag: "a", OccurredAt: now, Hostile: model.HostileDragon})
	old, _ := s.Create(ctx, model.CategoryHostile, model.Record{SubjectTag: "b", OccurredAt: now.Add(-48 * time.Hour), Hostile: model.HostileGoblin})

	got, _ := s.ListAll(ctx, model.CategoryHostile)
	if len(got) != 2 || got[0].ID != recent.ID || got[1].ID != old.ID {
		t.Errorf("backdated record should sort last, got %+v", got)
	}
}

func TestIDsUnique_IdenticalPayloads(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	draft := sighting("RedFox", time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		rec, err := s.Create(ctx, model.CategoryResource, draft)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestDelete_Idempotent(t *testing.T) {
	s, slots := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)
	keep, _ := s.Create(ctx, model.CategoryResource, sighting("keep", at))
	drop, _ := s.Create(ctx, model.CategoryResource, sighting("drop", at.Add(time.Minute)))

	if err := s.Delete(ctx, model.CategoryResource, drop.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	once, _, _ := slots.Get(ctx, "koh_gather_nodes")
	if err := s.Delete(ctx, model.CategoryResource, drop.ID); err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	twice, _, _ := slots.Get(ctx, "koh_gather_nodes")
	if once != twice {
		t.Errorf("second delete changed state:\n%s\n%s", once, twice)
	}
	got, _ := s.ListAll(ctx, model.CategoryResource)
	if len(got) != 1 || got[0].ID != keep.ID {
		t.Errorf("remaining = %+v, want only %s", got, keep.ID)
	}
}

func TestMalformedSlot_IsolatedToCategory(t *testing.T) {
	s, slots := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "ok", OccurredAt: time.Now(), Activity: model.ActivityOnline}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := slots.Set(ctx, "koh_mob_hits", "{{{ not json"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.ListAll(ctx, model.CategoryHostile)
	if err != nil || len(got) != 0 {
		t.Errorf("malformed category = %v, %v; want empty, nil", got, err)
	}
	if got, _ := s.ListAll(ctx, model.CategoryPresence); len(got) != 1 {
		t.Errorf("healthy category affected: %d records", len(got))
	}
	// A write replaces the unreadable slot.
	if _, err := s.Create(ctx, model.CategoryHostile, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Hostile: model.HostileHydra}); err != nil {
		t.Fatalf("Create over malformed slot: %v", err)
	}
	if got, _ := s.ListAll(ctx, model.CategoryHostile); len(got) != 1 {
		t.Errorf("got %d records after rewrite, want 1", len(got))
	}
}

func TestSlotFormat(t *testing.T) {
	s, slots := newTestStore(t)
	ctx := context.Background()
	rec, _ := s.Create(ctx, model.CategoryResource, sighting("RedFox", time.Date(2025, 7, 4, 18, 30, 0, 0, time.UTC)))

	raw, ok, _ := slots.Get(ctx, "koh_gather_nodes")
	if !ok {
		t.Fatal("slot koh_gather_nodes not written")
	}
	records, err := model.DecodeList([]byte(raw))
	if err != nil || len(records) != 1 || records[0].ID != rec.ID {
		t.Errorf("slot contents = %s", raw)
	}
}

func TestSubscribe_LocalNoop(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	stop, err := s.SubscribeToChanges(ctx, model.CategoryPresence, func() { t.Error("local subscription fired") })
	if err != nil {
		t.Fatalf("SubscribeToChanges: %v", err)
	}
	if _, err := s.Create(ctx, model.CategoryPresence, model.Record{SubjectTag: "x", OccurredAt: time.Now(), Activity: model.ActivityOther}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	stop()
	stop()
	if s.Mode() != store.ModeLocal {
		t.Errorf("Mode = %s, want local", s.Mode())
	}
}
