package main

import (
	"testing"
	"time"

	"github.com/alfredjeanlab/warroom/internal/model"
)

func TestDiffRecords_InitialPoll(t *testing.T) {
	seen := make(map[string]struct{})
	now := time.Now()
	records := []model.Record{
		{ID: "b", OccurredAt: now.Add(time.Second)},
		{ID: "a", OccurredAt: now},
	}

	fresh := diffRecords(records, seen)
	if len(fresh) != 2 {
		t.Fatalf("got %d fresh, want 2", len(fresh))
	}
	if fresh[0].ID != "a" || fresh[1].ID != "b" {
		t.Fatalf("got order %s,%s; want oldest first", fresh[0].ID, fresh[1].ID)
	}
	if len(seen) != 2 {
		t.Fatalf("got %d seen, want 2", len(seen))
	}
}

func TestDiffRecords_NoChanges(t *testing.T) {
	seen := map[string]struct{}{"a": {}, "b": {}}
	records := []model.Record{{ID: "b"}, {ID: "a"}}

	if fresh := diffRecords(records, seen); len(fresh) != 0 {
		t.Fatalf("got %d fresh, want 0", len(fresh))
	}
}

func TestDiffRecords_NewRecord(t *testing.T) {
	seen := map[string]struct{}{"a": {}}
	records := []model.Record{{ID: "c"}, {ID: "a"}}

	fresh := diffRecords(records, seen)
	if len(fresh) != 1 || fresh[0].ID != "c" {
		t.Fatalf("got %+v, want only c", fresh)
	}
}

func TestDiffRecords_DeletedRecordIgnored(t *testing.T) {
	seen := map[string]struct{}{"a": {}, "b": {}}
	records := []model.Record{{ID: "a"}}

	if fresh := diffRecords(records, seen); len(fresh) != 0 {
		t.Fatalf("got %d fresh, want 0", len(fresh))
	}
}
