// Package clock converts between wall-clock readings in named time zones and
// absolute UTC instants.
//
// All stored instants are UTC. A wall clock only means something together
// with the zone it was read in, so every conversion takes both.
package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// InputLayout is the wall-clock form accepted from input fields.
const InputLayout = "2006-01-02T15:04"

// WallClock is a zone-less reading of a clock face at minute precision.
type WallClock struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
}

// ParseWallClock parses a "YYYY-MM-DDTHH:MM" value.
func ParseWallClock(s string) (WallClock, error) {
	t, err := time.Parse(InputLayout, s)
	if err != nil {
		return WallClock{}, fmt.Errorf("parse wall clock %q: %w", s, err)
	}
	return wallOf(t), nil
}

// String renders the wall clock as "YYYY-MM-DDTHH:MM".
func (w WallClock) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d", w.Year, w.Month, w.Day, w.Hour, w.Minute)
}

// naive reads the wall clock as if it were a UTC reading.
func (w WallClock) naive() time.Time {
	return time.Date(w.Year, time.Month(w.Month), w.Day, w.Hour, w.Minute, 0, 0, time.UTC)
}

func wallOf(t time.Time) WallClock {
	return WallClock{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour(), Minute: t.Minute()}
}

// Precision selects how much of an instant UTCToLocal renders.
type Precision int

const (
	// PrecisionDateTime renders "Jul 4, 2025, 02:30 PM".
	PrecisionDateTime Precision = iota
	// PrecisionTime renders "02:30 PM".
	PrecisionTime
	// PrecisionClock renders "02:30:05 PM".
	PrecisionClock
)

func (p Precision) layout() string {
	switch p {
	case PrecisionTime:
		return "03:04 PM"
	case PrecisionClock:
		return "03:04:05 PM"
	default:
		return "Jan 2, 2006, 03:04 PM"
	}
}

// offsetAt returns how far the zone's clock face is ahead of UTC at instant u.
func offsetAt(u time.Time, zone *time.Location) time.Duration {
	_, secs := u.In(zone).Zone()
	return time.Duration(secs) * time.Second
}

// LocalToUTC returns the instant at which a clock in zone showed w.
//
// The wall values are first read as UTC; rendering that candidate in zone
// gives the zone's offset near the target, and the offset is subtracted. When
// a transition lies within a day of the input the result is resolved against
// the offsets on both sides of it: a reading that never occurred (gap) uses
// the pre-transition offset, and a reading that occurred twice (overlap)
// resolves to the standard-time instant.
func LocalToUTC(w WallClock, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	naive := w.naive()
	first := naive.Add(-offsetAt(naive, zone))

	before := offsetAt(naive.Add(-24*time.Hour), zone)
	after := offsetAt(naive.Add(24*time.Hour), zone)
	if before == after {
		return first
	}
	return resolveTransition(naive, zone, before, after)
}

func resolveTransition(naive time.Time, zone *time.Location, before, after time.Duration) time.Time {
	early := naive.Add(-before)
	late := naive.Add(-after)
	earlyOK := offsetAt(early, zone) == before
	lateOK := offsetAt(late, zone) == after

	switch {
	case earlyOK && lateOK:
		// Overlap: the reading happened twice.
		if early.In(zone).IsDST() && !late.In(zone).IsDST() {
			return late
		}
		if late.In(zone).IsDST() && !early.In(zone).IsDST() {
			return early
		}
		if late.Before(early) {
			return late
		}
		return early
	case earlyOK:
		return early
	case lateOK:
		return late
	default:
		// Gap: the reading never happened.
		return early
	}
}

// UTCToLocal renders t as seen by a viewer in zone.
func UTCToLocal(t time.Time, zone *time.Location, p Precision) string {
	if zone == nil {
		zone = time.UTC
	}
	return t.In(zone).Format(p.layout())
}

// WallClockIn returns the wall clock a viewer in zone saw at t.
func WallClockIn(t time.Time, zone *time.Location) WallClock {
	if zone == nil {
		zone = time.UTC
	}
	return wallOf(t.In(zone))
}

// HourOfDayInZone returns the hour 0-23 shown in zone at t.
func HourOfDayInZone(t time.Time, zone *time.Location) int {
	if zone == nil {
		zone = time.UTC
	}
	return t.In(zone).Hour()
}

// CurrentInstantFormatted renders the current time in zone at clock precision.
func CurrentInstantFormatted(clk clockwork.Clock, zone *time.Location) string {
	return UTCToLocal(clk.Now(), zone, PrecisionClock)
}

// NowInput returns the current wall clock in zone, suitable as a default
// value for a local-time input.
func NowInput(clk clockwork.Clock, zone *time.Location) WallClock {
	return WallClockIn(clk.Now(), zone)
}
