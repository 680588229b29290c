package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var zonesCmd = &cobra.Command{
	Use:     "zones",
	Short:   "List selectable time zones",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		regions := clock.Catalogue()
		if jsonOutput {
			printJSON(regions)
			return nil
		}
		now := app.clock.Now()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, r := range regions {
			fmt.Fprintf(tw, "%s\n", ui.RenderAccent(r.Name))
			for _, z := range r.Zones {
				loc, err := clock.LoadZone(z.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", z.Name, z.Label,
					ui.RenderMuted(clock.UTCToLocal(now, loc, clock.PrecisionTime)))
			}
		}
		return tw.Flush()
	},
}

var clockCmd = &cobra.Command{
	Use:     "clock",
	Short:   "Show the current time in your zone",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		live, _ := cmd.Flags().GetBool("live")
		ctx := cmd.Context()
		zone, err := viewerZone(ctx)
		if err != nil {
			return err
		}

		if !live {
			if jsonOutput {
				printJSON(map[string]string{
					"zone":  zone.String(),
					"now":   clock.CurrentInstantFormatted(app.clock, zone),
					"input": clock.NowInput(app.clock, zone).String(),
				})
				return nil
			}
			fmt.Printf("%s %s\n", clock.CurrentInstantFormatted(app.clock, zone), ui.RenderMuted(zone.String()))
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		runLiveClock(ctx, zone)
		fmt.Println()
		return nil
	},
}

func init() {
	clockCmd.Flags().Bool("live", false, "keep updating every second until interrupted")
}

func runLiveClock(ctx context.Context, zone *time.Location) {
	label := ui.RenderMuted(zone.String())
	lc := clock.NewLiveClock(app.clock,
		func() *time.Location { return zone },
		func(s string) { fmt.Printf("\r%s %s", s, label) },
		app.logger,
	)
	lc.Run(ctx)
}
