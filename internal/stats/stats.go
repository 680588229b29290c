// Package stats aggregates records for the dashboard: counts, an hourly
// heatmap in the viewer's zone, peak hours, most active subjects, level
// distributions and per-subject profiles.
package stats

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// Node levels shown in the resource level distribution.
const (
	MinTrackedNodeLevel = 15
	MaxTrackedNodeLevel = 21
)

// Dataset holds the contents of every category.
type Dataset struct {
	Presence []model.Record
	Resource []model.Record
	Hostile  []model.Record
}

// Load reads every category from s.
func Load(ctx context.Context, s *store.Store) (Dataset, error) {
	var d Dataset
	var err error
	if d.Presence, err = s.ListAll(ctx, model.CategoryPresence); err != nil {
		return Dataset{}, err
	}
	if d.Resource, err = s.ListAll(ctx, model.CategoryResource); err != nil {
		return Dataset{}, err
	}
	if d.Hostile, err = s.ListAll(ctx, model.CategoryHostile); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// All returns every record in the dataset.
func (d Dataset) All() []model.Record {
	out := make([]model.Record, 0, len(d.Presence)+len(d.Resource)+len(d.Hostile))
	out = append(out, d.Presence...)
	out = append(out, d.Resource...)
	return append(out, d.Hostile...)
}

// Filter keeps only the records about subject.
func (d Dataset) Filter(subject string) Dataset {
	keep := func(in []model.Record) []model.Record {
		var out []model.Record
		for _, r := range in {
			if model.SameSubject(r.SubjectTag, subject) {
				out = append(out, r)
			}
		}
		return out
	}
	return Dataset{Presence: keep(d.Presence), Resource: keep(d.Resource), Hostile: keep(d.Hostile)}
}

// Summary is the headline counts.
type Summary struct {
	TotalSightings  int `json:"totalSightings"`
	ActiveSubjects  int `json:"activeSubjects"`
	PresenceReports int `json:"presenceReports"`
	ResourceReports int `json:"resourceReports"`
	HostileReports  int `json:"hostileReports"`
}

// Summarize counts records and distinct subjects. Subjects differing only in
// case count once.
func Summarize(d Dataset) Summary {
	subjects := map[string]struct{}{}
	for _, r := range d.All() {
		if tag := strings.ToLower(strings.TrimSpace(r.SubjectTag)); tag != "" {
			subjects[tag] = struct{}{}
		}
	}
	return Summary{
		TotalSightings:  len(d.Presence) + len(d.Resource) + len(d.Hostile),
		ActiveSubjects:  len(subjects),
		PresenceReports: len(d.Presence),
		ResourceReports: len(d.Resource),
		HostileReports:  len(d.Hostile),
	}
}

// Heatmap counts records per hour of day as seen in zone.
func Heatmap(records []model.Record, zone *time.Location) [24]int {
	var hours [24]int
	for _, r := range records {
		if r.OccurredAt.IsZero() {
			continue
		}
		hours[clock.HourOfDayInZone(r.OccurredAt, zone)]++
	}
	return hours
}

// HourCount is the number of records in one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// PeakHours returns the n busiest hours, busiest first, earlier hour first on
// ties. An all-zero heatmap has no peaks.
func PeakHours(heatmap [24]int, n int) []HourCount {
	peaks := make([]HourCount, 0, 24)
	for h, c := range heatmap {
		peaks = append(peaks, HourCount{Hour: h, Count: c})
	}
	slices.SortStableFunc(peaks, func(a, b HourCount) int { return cmp.Compare(b.Count, a.Count) })
	if len(peaks) == 0 || peaks[0].Count == 0 {
		return []HourCount{}
	}
	return peaks[:min(n, len(peaks))]
}

// SubjectCount is the number of records about one subject.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// TopSubjects returns the n most reported subjects, case-folded.
func TopSubjects(d Dataset, n int) []SubjectCount {
	counts := map[string]int{}
	for _, r := range d.All() {
		if tag := strings.ToLower(strings.TrimSpace(r.SubjectTag)); tag != "" {
			counts[tag]++
		}
	}
	out := make([]SubjectCount, 0, len(counts))
	for tag, c := range counts {
		out = append(out, SubjectCount{Subject: tag, Count: c})
	}
	slices.SortFunc(out, func(a, b SubjectCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Subject, b.Subject)
	})
	return out[:min(n, len(out))]
}

// Subjects lists distinct subject tags as first written, sorted.
func Subjects(d Dataset) []string {
	seen := map[string]string{}
	for _, r := range d.All() {
		tag := strings.TrimSpace(r.SubjectTag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[key]; !ok {
			seen[key] = tag
		}
	}
	out := make([]string, 0, len(seen))
	for _, tag := range seen {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// LevelCount is the number of sightings at one level.
type LevelCount struct {
	Level int `json:"level"`
	Count int `json:"count"`
}

// NodeLevels counts resource sightings for each tracked node level, including
// levels with no sightings.
func NodeLevels(records []model.Record) []LevelCount {
	out := make([]LevelCount, 0, MaxTrackedNodeLevel-MinTrackedNodeLevel+1)
	for lv := MinTrackedNodeLevel; lv <= MaxTrackedNodeLevel; lv++ {
		out = append(out, LevelCount{Level: lv})
	}
	for _, r := range records {
		if r.NodeLevel >= MinTrackedNodeLevel && r.NodeLevel <= MaxTrackedNodeLevel {
			out[r.NodeLevel-MinTrackedNodeLevel].Count++
		}
	}
	return out
}

// HostileLevels counts hostile sightings per reported level, ascending.
func HostileLevels(records []model.Record) []LevelCount {
	return levelHistogram(records, func(r model.Record) int { return r.HostileLevel })
}

func levelHistogram(records []model.Record, level func(model.Record) int) []LevelCount {
	counts := map[int]int{}
	for _, r := range records {
		if lv := level(r); lv > 0 {
			counts[lv]++
		}
	}
	out := make([]LevelCount, 0, len(counts))
	for lv, c := range counts {
		out = append(out, LevelCount{Level: lv, Count: c})
	}
	slices.SortFunc(out, func(a, b LevelCount) int { return cmp.Compare(a.Level, b.Level) })
	return out
}

// mostCommon returns the level with the highest count, lowest level on ties,
// or 0 when there is none.
func mostCommon(levels []LevelCount) int {
	best := LevelCount{}
	for _, lc := range levels {
		if lc.Count > best.Count {
			best = lc
		}
	}
	return best.Level
}

// Recent returns the n newest records across all categories.
func Recent(d Dataset, n int) []model.Record {
	all := d.All()
	store.SortNewestFirst(all)
	return all[:min(n, len(all))]
}

// Profile summarizes one subject.
type Profile struct {
	Subject         string                     `json:"subject"`
	Total           int                        `json:"total"`
	Presence        int                        `json:"presence"`
	Resource        int                        `json:"resource"`
	Hostile         int                        `json:"hostile"`
	PeakHour        int                        `json:"peakHour"`
	TopNodeLevel    int                        `json:"topNodeLevel,omitempty"`
	TopHostileLevel int                        `json:"topHostileLevel,omitempty"`
	Activities      map[model.ActivityKind]int `json:"activities"`
}

// SubjectProfile builds the profile of subject with hours read in zone.
func SubjectProfile(d Dataset, subject string, zone *time.Location) Profile {
	mine := d.Filter(subject)
	p := Profile{
		Subject:    strings.TrimSpace(subject),
		Presence:   len(mine.Presence),
		Resource:   len(mine.Resource),
		Hostile:    len(mine.Hostile),
		Activities: map[model.ActivityKind]int{},
	}
	p.Total = p.Presence + p.Resource + p.Hostile

	heat := Heatmap(mine.All(), zone)
	for h, c := range heat {
		if c > heat[p.PeakHour] {
			p.PeakHour = h
		}
	}
	p.TopNodeLevel = mostCommon(levelHistogram(mine.Resource, func(r model.Record) int { return r.NodeLevel }))
	p.TopHostileLevel = mostCommon(HostileLevels(mine.Hostile))
	for _, r := range mine.Presence {
		if r.Activity != "" {
			p.Activities[r.Activity]++
		}
	}
	return p
}

// Report is the full dashboard view.
type Report struct {
	Zone          string         `json:"zone"`
	Summary       Summary        `json:"summary"`
	Heatmap       [24]int        `json:"heatmap"`
	PeakHours     []HourCount    `json:"peakHours"`
	TopSubjects   []SubjectCount `json:"topSubjects"`
	NodeLevels    []LevelCount   `json:"nodeLevels"`
	HostileLevels []LevelCount   `json:"hostileLevels"`
	Recent        []model.Record `json:"recent"`
}

// Build assembles the dashboard for a viewer in zone.
func Build(d Dataset, zone *time.Location) Report {
	heat := Heatmap(d.All(), zone)
	return Report{
		Zone:          zone.String(),
		Summary:       Summarize(d),
		Heatmap:       heat,
		PeakHours:     PeakHours(heat, 6),
		TopSubjects:   TopSubjects(d, 10),
		NodeLevels:    NodeLevels(d.Resource),
		HostileLevels: HostileLevels(d.Hostile),
		Recent:        Recent(d, 20),
	}
}
