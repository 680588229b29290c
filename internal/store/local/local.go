// Package local implements the device-only record backend: one slot per
// category holding the full newest-first record array.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/warroom/internal/idgen"
	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// Adapter stores records in device slots.
type Adapter struct {
	slots  kv.Slots
	logger *slog.Logger

	// mu serializes read-modify-write of a slot.
	mu sync.Mutex
}

var _ store.Adapter = (*Adapter)(nil)

// New returns a local adapter over slots.
func New(slots kv.Slots, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{slots: slots, logger: logger}
}

func (a *Adapter) Mode() store.Mode { return store.ModeLocal }

func (a *Adapter) NewID(context.Context) (string, error) {
	return idgen.Generate()
}

func (a *Adapter) List(ctx context.Context, c model.Category) ([]model.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read(ctx, c)
}

// Put prepends the record and rewrites the slot. An ID already present in the
// slot is refused with store.ErrDuplicateID.
func (a *Adapter) Put(ctx context.Context, c model.Category, r model.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.read(ctx, c)
	if err != nil {
		return err
	}
	for _, existing := range records {
		if existing.ID == r.ID {
			return fmt.Errorf("create %s: %w: %q", c, store.ErrDuplicateID, r.ID)
		}
	}
	records = append([]model.Record{r}, records...)
	return a.write(ctx, c, records)
}

// Delete filters the record out and rewrites the slot.
func (a *Adapter) Delete(ctx context.Context, c model.Category, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	records, err := a.read(ctx, c)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return a.write(ctx, c, kept)
}

// Subscribe never fires: a single device has no other writers.
func (a *Adapter) Subscribe(context.Context, model.Category, func()) (func(), error) {
	return func() {}, nil
}

func (a *Adapter) Close() error { return nil }

func (a *Adapter) read(ctx context.Context, c model.Category) ([]model.Record, error) {
	raw, ok, err := a.slots.Get(ctx, c.SlotKey())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	if !ok {
		return []model.Record{}, nil
	}
	records, err := model.DecodeList([]byte(raw))
	if err != nil {
		a.logger.Warn("discarding unreadable local category", "category", c, "err", err)
		return []model.Record{}, nil
	}
	return records, nil
}

func (a *Adapter) write(ctx context.Context, c model.Category, records []model.Record) error {
	data, err := model.EncodeList(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := a.slots.Set(ctx, c.SlotKey(), string(data)); err != nil {
		return fmt.Errorf("write %s: %w", c, err)
	}
	return nil
}
