package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/store"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch <category>",
	Short:   "Stream new records as they arrive",
	GroupID: "views",
	Long: `Print a category, then each record added after that.

With a remote store, changes from every operator arrive as they happen. On
the device-only store the category is polled every --interval.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := model.ParseCategory(args[0])
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		recent, _ := cmd.Flags().GetInt("recent")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := app.Store(ctx)
		if err != nil {
			return err
		}
		zone, err := viewerZone(ctx)
		if err != nil {
			return err
		}

		w := &watcher{store: s, category: c, seen: make(map[string]struct{})}
		initial, err := w.poll(ctx)
		if err != nil {
			return err
		}
		// Show only the latest few of the initial listing, oldest first.
		for _, r := range initial[max(0, len(initial)-recent):] {
			printRecordLine(os.Stdout, c, r, zone)
		}
		fmt.Fprintln(os.Stderr, ui.RenderMuted(fmt.Sprintf("watching %s (%s)...", c, s.Mode())))

		changes := make(chan struct{}, 1)
		if s.Mode() == store.ModeRemote {
			unsubscribe, err := s.SubscribeToChanges(ctx, c, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
			if err != nil {
				return err
			}
			defer unsubscribe()
		} else {
			go pollTicker(ctx, interval, changes)
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				fresh, err := w.poll(ctx)
				if err != nil {
					app.logger.Warn("watch refresh failed", "category", c, "err", err)
					continue
				}
				for _, r := range fresh {
					printRecordLine(os.Stdout, c, r, zone)
				}
			}
		}
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "poll interval for the device-only store")
	watchCmd.Flags().Int("recent", 10, "number of existing records to show first")
}

// watcher tracks which records of a category have been printed.
type watcher struct {
	store    *store.Store
	category model.Category
	seen     map[string]struct{}
}

// poll lists the category and returns the records not seen before, oldest
// first.
func (w *watcher) poll(ctx context.Context) ([]model.Record, error) {
	records, err := w.store.ListAll(ctx, w.category)
	if err != nil {
		return nil, err
	}
	return diffRecords(records, w.seen), nil
}

// diffRecords returns records whose IDs are not in seen, oldest first, and
// marks them seen.
func diffRecords(newestFirst []model.Record, seen map[string]struct{}) []model.Record {
	var fresh []model.Record
	for _, r := range newestFirst {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		fresh = append(fresh, r)
	}
	slices.Reverse(fresh)
	return fresh
}

func pollTicker(ctx context.Context, interval time.Duration, out chan<- struct{}) {
	ticker := app.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}
