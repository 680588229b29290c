package model

import (
	"strings"
	"time"
)

// Record is one observation in the shared log. Records are immutable once
// persisted; the only mutation is deletion.
type Record struct {
	ID         string
	SubjectTag string
	// OccurredAt is the absolute instant of the observation. Display values
	// are always derived from it.
	OccurredAt time.Time

	// Presence
	Activity ActivityKind

	// Resource-node sighting
	NodeLevel int
	Resource  ResourceKind

	// Hostile sighting
	HostileLevel int
	Hostile      HostileKind

	Coords *string
	Notes  *string

	// ReporterName is a snapshot of the operator's display name at submission.
	ReporterName string
	// ReporterTimeZone is the zone the local wall-clock input was read in.
	// Kept for audit only; rendering always uses the viewer's zone.
	ReporterTimeZone string
}

// Optional returns nil for blank text and a pointer to the trimmed text otherwise.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CoordsText returns the coordinates or "".
func (r Record) CoordsText() string {
	return deref(r.Coords)
}

// NotesText returns the notes or "".
func (r Record) NotesText() string {
	return deref(r.Notes)
}

// SameSubject reports whether two subject tags name the same actor.
// Matching is case-insensitive; display keeps the original case.
func SameSubject(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
