// Package store implements the record store: one list/create/delete/subscribe
// contract over whichever backend adapter was selected at startup.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/alfredjeanlab/warroom/internal/model"
)

// Mode identifies the active backend variant.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Adapter is a persistence backend for records. Callers go through Store,
// which validates categories and enforces ordering.
type Adapter interface {
	// Mode reports which backend variant this is.
	Mode() Mode
	// NewID returns a fresh record identifier for the backend.
	NewID(ctx context.Context) (string, error)
	// List returns every record in the category in any order. Unreadable
	// persisted data yields an empty list, not an error.
	List(ctx context.Context, c model.Category) ([]model.Record, error)
	// Put persists a record whose ID is already set.
	Put(ctx context.Context, c model.Category, r model.Record) error
	// Delete removes a record. Removing a missing record succeeds.
	Delete(ctx context.Context, c model.Category, id string) error
	// Subscribe calls onChange at least once after any write to the
	// category until the returned stop function is called.
	Subscribe(ctx context.Context, c model.Category, onChange func()) (func(), error)
	// Close releases backend resources.
	Close() error
}

// Store is the record store used by every caller.
type Store struct {
	adapter Adapter
	logger  *slog.Logger
}

// New wraps an adapter.
func New(adapter Adapter, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{adapter: adapter, logger: logger}
}

// Mode reports the active backend variant.
func (s *Store) Mode() Mode {
	return s.adapter.Mode()
}

// ListAll returns the full contents of a category, newest OccurredAt first.
// An unknown category is empty.
func (s *Store) ListAll(ctx context.Context, c model.Category) ([]model.Record, error) {
	if !c.IsValid() {
		return []model.Record{}, nil
	}
	records, err := s.adapter.List(ctx, c)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.Record{}
	}
	SortNewestFirst(records)
	return records, nil
}

// Create persists a draft and returns the stored record. The draft is taken
// by value; only the returned copy carries the assigned ID. A provided ID
// that is already stored fails with ErrDuplicateID.
func (s *Store) Create(ctx context.Context, c model.Category, draft model.Record) (model.Record, error) {
	if !c.IsValid() {
		return model.Record{}, fmt.Errorf("create: %w: %q", ErrUnknownCategory, c)
	}
	rec := draft
	if strings.TrimSpace(rec.ID) == "" {
		id, err := s.adapter.NewID(ctx)
		if err != nil {
			return model.Record{}, fmt.Errorf("create: assigning id: %w", err)
		}
		rec.ID = id
	}
	rec.OccurredAt = rec.OccurredAt.UTC()
	if err := s.adapter.Put(ctx, c, rec); err != nil {
		return model.Record{}, err
	}
	s.logger.Debug("record created", "category", c, "id", rec.ID, "mode", s.adapter.Mode())
	return rec, nil
}

// Delete removes a record. An empty id or unknown category is a no-op, and
// deleting a record that does not exist succeeds.
func (s *Store) Delete(ctx context.Context, c model.Category, id string) error {
	if !c.IsValid() || strings.TrimSpace(id) == "" {
		return nil
	}
	if err := s.adapter.Delete(ctx, c, id); err != nil {
		return err
	}
	s.logger.Debug("record deleted", "category", c, "id", id, "mode", s.adapter.Mode())
	return nil
}

// SubscribeToChanges registers onChange for writes to a category. The
// returned function detaches the listener and may be called more than once.
// Under the local backend the subscription never fires.
func (s *Store) SubscribeToChanges(ctx context.Context, c model.Category, onChange func()) (func(), error) {
	if !c.IsValid() {
		return func() {}, nil
	}
	stop, err := s.adapter.Subscribe(ctx, c, onChange)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(stop) }, nil
}

// Close closes the adapter.
func (s *Store) Close() error {
	return s.adapter.Close()
}

// SortNewestFirst orders records by OccurredAt descending, keeping the
// existing order for equal instants.
func SortNewestFirst(records []model.Record) {
	slices.SortStableFunc(records, func(a, b model.Record) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
}
