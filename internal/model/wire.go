package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is the persisted form of OccurredAt: always UTC with millisecond
// precision, so stored values sort lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// wireRecord is the persisted shape shared by the local slots and the remote
// store. Absent optional text is stored as "".
type wireRecord struct {
	ID               string `json:"id,omitempty"`
	SubjectTag       string `json:"subjectTag"`
	OccurredAtUTC    string `json:"occurredAtUtc"`
	ActivityKind     string `json:"activityKind,omitempty"`
	NodeLevel        int    `json:"nodeLevel,omitempty"`
	ResourceKind     string `json:"resourceKind,omitempty"`
	HostileLevel     int    `json:"hostileLevel,omitempty"`
	HostileKind      string `json:"hostileKind,omitempty"`
	Coords           string `json:"coords"`
	Notes            string `json:"notes"`
	ReporterName     string `json:"reporterName"`
	ReporterTimeZone string `json:"reporterTimeZone"`
}

// FormatInstant renders an instant in the persisted layout.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseInstant parses a persisted instant. Any RFC 3339 value is accepted.
func ParseInstant(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", s, err)
	}
	return t.UTC(), nil
}

func toWire(r Record, withID bool) wireRecord {
	w := wireRecord{
		SubjectTag:       r.SubjectTag,
		OccurredAtUTC:    FormatInstant(r.OccurredAt),
		ActivityKind:     string(r.Activity),
		NodeLevel:        r.NodeLevel,
		ResourceKind:     string(r.Resource),
		HostileLevel:     r.HostileLevel,
		HostileKind:      string(r.Hostile),
		Coords:           r.CoordsText(),
		Notes:            r.NotesText(),
		ReporterName:     r.ReporterName,
		ReporterTimeZone: r.ReporterTimeZone,
	}
	if withID {
		w.ID = r.ID
	}
	return w
}

func fromWire(w wireRecord) (Record, error) {
	at, err := ParseInstant(w.OccurredAtUTC)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:               w.ID,
		SubjectTag:       w.SubjectTag,
		OccurredAt:       at,
		Activity:         ActivityKind(w.ActivityKind),
		NodeLevel:        w.NodeLevel,
		Resource:         ResourceKind(w.ResourceKind),
		HostileLevel:     w.HostileLevel,
		Hostile:          HostileKind(w.HostileKind),
		Coords:           Optional(w.Coords),
		Notes:            Optional(w.Notes),
		ReporterName:     w.ReporterName,
		ReporterTimeZone: w.ReporterTimeZone,
	}, nil
}

// MarshalJSON encodes the record in the persisted local format (with id).
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(r, true))
}

// UnmarshalJSON decodes the persisted local format.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	rec, err := fromWire(w)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// EncodeList encodes a category's full record sequence for a local slot.
func EncodeList(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

// DecodeList decodes a local slot. An empty slot decodes to an empty list.
func DecodeList(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// EncodeNode encodes a record for the remote store. The id is omitted because
// the node key carries it.
func EncodeNode(r Record) ([]byte, error) {
	return json.Marshal(toWire(r, false))
}

// DecodeNode decodes a remote node stored under key.
func DecodeNode(key string, data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("decode node %s: %w", key, err)
	}
	rec, err := fromWire(w)
	if err != nil {
		return Record{}, fmt.Errorf("decode node %s: %w", key, err)
	}
	rec.ID = key
	return rec, nil
}
