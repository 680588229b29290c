package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// recordKind is the kind column: activity, resource or hostile kind.
func recordKind(c model.Category, r model.Record) string {
	switch c {
	case model.CategoryPresence:
		return ui.Label(string(r.Activity))
	case model.CategoryResource:
		return ui.Label(string(r.Resource))
	case model.CategoryHostile:
		return ui.Label(string(r.Hostile))
	}
	return ""
}

// recordLevel is the level column, blank for presence reports.
func recordLevel(c model.Category, r model.Record) string {
	switch c {
	case model.CategoryResource:
		return fmt.Sprintf("L%d", r.NodeLevel)
	case model.CategoryHostile:
		return fmt.Sprintf("L%d", r.HostileLevel)
	}
	return ""
}

func writeRecordTable(w io.Writer, c model.Category, records []model.Record, zone *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if c == model.CategoryPresence {
		fmt.Fprintln(tw, "WHEN\tSUBJECT\tACTIVITY\tCOORDS\tBY\tID")
	} else {
		fmt.Fprintln(tw, "WHEN\tSUBJECT\tKIND\tLEVEL\tCOORDS\tBY\tID")
	}
	for _, r := range records {
		when := clock.UTCToLocal(r.OccurredAt, zone, clock.PrecisionDateTime)
		subject := ui.RenderCategory(c, r.SubjectTag)
		if c == model.CategoryPresence {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				when, subject, recordKind(c, r), r.CoordsText(), r.ReporterName, ui.RenderMuted(r.ID))
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				when, subject, recordKind(c, r), recordLevel(c, r), r.CoordsText(), r.ReporterName, ui.RenderMuted(r.ID))
		}
	}
	tw.Flush()
}

// printRecordLine prints one record on a single line, for streams.
func printRecordLine(w io.Writer, c model.Category, r model.Record, zone *time.Location) {
	parts := []string{
		clock.UTCToLocal(r.OccurredAt, zone, clock.PrecisionDateTime),
		ui.RenderCategory(c, r.SubjectTag),
		recordKind(c, r),
	}
	if lvl := recordLevel(c, r); lvl != "" {
		parts = append(parts, lvl)
	}
	if coords := r.CoordsText(); coords != "" {
		parts = append(parts, coords)
	}
	if r.ReporterName != "" {
		parts = append(parts, ui.RenderMuted("by "+r.ReporterName))
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}
