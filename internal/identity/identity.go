// Package identity keeps the operator's display name, name history, viewer
// time zone and onboarding flag. It is always device-local, whichever record
// backend is active.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/model"
)

// Slot keys.
const (
	SlotDisplayName = "koh_username"
	SlotNameHistory = "koh_username_history"
	SlotViewerZone  = "koh_viewer_tz"
	SlotSetupDone   = "koh_setup_done"
)

const setupDoneValue = "true"

// NameChange is one entry of the display-name history.
type NameChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"-"`
}

type wireNameChange struct {
	From         string `json:"from"`
	To           string `json:"to"`
	ChangedAtUTC string `json:"changedAtUtc"`
}

func (n NameChange) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireNameChange{From: n.From, To: n.To, ChangedAtUTC: model.FormatInstant(n.ChangedAt)})
}

func (n *NameChange) UnmarshalJSON(data []byte) error {
	var w wireNameChange
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	at, err := model.ParseInstant(w.ChangedAtUTC)
	if err != nil {
		return err
	}
	*n = NameChange{From: w.From, To: w.To, ChangedAt: at}
	return nil
}

// Profile is a read of every preference at once.
type Profile struct {
	DisplayName    string       `json:"displayName"`
	ViewerTimeZone string       `json:"viewerTimeZone"`
	SetupCompleted bool         `json:"setupCompleted"`
	NameChanges    []NameChange `json:"nameChanges"`
}

// Store reads and writes preferences in device slots.
type Store struct {
	slots  kv.Slots
	clock  clockwork.Clock
	logger *slog.Logger
}

// New returns a preferences store over slots.
func New(slots kv.Slots, clk clockwork.Clock, logger *slog.Logger) *Store {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{slots: slots, clock: clk, logger: logger}
}

// DisplayName returns the stored name, or "" when none is set.
func (s *Store) DisplayName(ctx context.Context) (string, error) {
	v, _, err := s.slots.Get(ctx, SlotDisplayName)
	if err != nil {
		return "", fmt.Errorf("read display name: %w", err)
	}
	return v, nil
}

// SetDisplayName stores name. A change from one non-empty name to a
// different one is appended to the history; setting the same name, or a
// first name, is not.
func (s *Store) SetDisplayName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	old, err := s.DisplayName(ctx)
	if err != nil {
		return err
	}
	if old != "" && name != "" && old != name {
		history, err := s.NameChangeLog(ctx)
		if err != nil {
			return err
		}
		history = append(history, NameChange{From: old, To: name, ChangedAt: s.clock.Now().UTC()})
		data, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("encode name history: %w", err)
		}
		if err := s.slots.Set(ctx, SlotNameHistory, string(data)); err != nil {
			return fmt.Errorf("write name history: %w", err)
		}
		s.logger.Info("display name changed", "from", old, "to", name)
	}
	if err := s.slots.Set(ctx, SlotDisplayName, name); err != nil {
		return fmt.Errorf("write display name: %w", err)
	}
	return nil
}

// NameChangeLog returns the name history, oldest first. Unreadable history
// reads as empty.
func (s *Store) NameChangeLog(ctx context.Context) ([]NameChange, error) {
	raw, ok, err := s.slots.Get(ctx, SlotNameHistory)
	if err != nil {
		return nil, fmt.Errorf("read name history: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []NameChange{}, nil
	}
	var history []NameChange
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.Warn("discarding unreadable name history", "err", err)
		return []NameChange{}, nil
	}
	if history == nil {
		history = []NameChange{}
	}
	return history, nil
}

// ViewerTimeZone returns the stored viewer zone, or the device zone when
// none is stored or the stored name no longer resolves.
func (s *Store) ViewerTimeZone(ctx context.Context) (string, error) {
	v, ok, err := s.slots.Get(ctx, SlotViewerZone)
	if err != nil {
		return "", fmt.Errorf("read viewer zone: %w", err)
	}
	if ok && v != "" {
		if _, err := clock.LoadZone(v); err == nil {
			return v, nil
		}
		s.logger.Warn("ignoring unknown stored zone", "zone", v)
	}
	return clock.DetectZone(), nil
}

// ViewerLocation is ViewerTimeZone resolved to a location.
func (s *Store) ViewerLocation(ctx context.Context) (*time.Location, error) {
	name, err := s.ViewerTimeZone(ctx)
	if err != nil {
		return nil, err
	}
	return clock.LoadZone(name)
}

// SetViewerTimeZone stores zone after checking it resolves.
func (s *Store) SetViewerTimeZone(ctx context.Context, zone string) error {
	zone = strings.TrimSpace(zone)
	if _, err := clock.LoadZone(zone); err != nil {
		return err
	}
	if err := s.slots.Set(ctx, SlotViewerZone, zone); err != nil {
		return fmt.Errorf("write viewer zone: %w", err)
	}
	return nil
}

// SetupCompleted reports whether onboarding finished on this device.
func (s *Store) SetupCompleted(ctx context.Context) (bool, error) {
	v, _, err := s.slots.Get(ctx, SlotSetupDone)
	if err != nil {
		return false, fmt.Errorf("read setup flag: %w", err)
	}
	return v == setupDoneValue, nil
}

// MarkSetupCompleted latches the onboarding flag.
func (s *Store) MarkSetupCompleted(ctx context.Context) error {
	if err := s.slots.Set(ctx, SlotSetupDone, setupDoneValue); err != nil {
		return fmt.Errorf("write setup flag: %w", err)
	}
	return nil
}

// Snapshot reads every preference.
func (s *Store) Snapshot(ctx context.Context) (Profile, error) {
	var p Profile
	var err error
	if p.DisplayName, err = s.DisplayName(ctx); err != nil {
		return Profile{}, err
	}
	if p.ViewerTimeZone, err = s.ViewerTimeZone(ctx); err != nil {
		return Profile{}, err
	}
	if p.SetupCompleted, err = s.SetupCompleted(ctx); err != nil {
		return Profile{}, err
	}
	if p.NameChanges, err = s.NameChangeLog(ctx); err != nil {
		return Profile{}, err
	}
	return p, nil
}
