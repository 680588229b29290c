package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// header is the first JSONL line written by ExportJSONL.
type header struct {
	Version   string                 `json:"version"`
	Type      string                 `json:"type"`
	Timestamp string                 `json:"timestamp"`
	Mode      store.Mode             `json:"mode"`
	Counts    map[model.Category]int `json:"counts"`
}

// line wraps one record with its category.
type line struct {
	Type     string         `json:"type"`
	Category model.Category `json:"category"`
	Data     model.Record   `json:"data"`
}

// ExportJSONL writes every category as JSONL to w: a header line, then each
// category's records newest first.
func ExportJSONL(ctx context.Context, s *store.Store, now time.Time, w io.Writer) error {
	byCategory := make(map[model.Category][]model.Record, len(model.Categories))
	counts := make(map[model.Category]int, len(model.Categories))
	for _, c := range model.Categories {
		records, err := s.ListAll(ctx, c)
		if err != nil {
			return fmt.Errorf("list %s: %w", c, err)
		}
		byCategory[c] = records
		counts[c] = len(records)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: model.FormatInstant(now),
		Mode:      s.Mode(),
		Counts:    counts,
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, c := range model.Categories {
		for _, r := range byCategory[c] {
			if err := enc.Encode(line{Type: "record", Category: c, Data: r}); err != nil {
				return fmt.Errorf("encode %s %s: %w", c, r.ID, err)
			}
		}
	}
	return nil
}
