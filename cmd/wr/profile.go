package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Short:   "Show or change your display name and zone",
	GroupID: "profile",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := app.identity.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(p)
			return nil
		}
		name := p.DisplayName
		if name == "" {
			name = ui.RenderMuted("(not set)")
		}
		label := p.ViewerTimeZone
		if z, ok := clock.LookupZone(p.ViewerTimeZone); ok {
			label = z.Label
		}
		fmt.Printf("Name:   %s\n", name)
		fmt.Printf("Zone:   %s %s\n", p.ViewerTimeZone, ui.RenderMuted(label))
		fmt.Printf("Setup:  %t\n", p.SetupCompleted)
		return nil
	},
}

var profileNameCmd = &cobra.Command{
	Use:   "name <name>",
	Short: "Set the name stamped on your reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.identity.SetDisplayName(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Name set to %s\n", args[0])
		return nil
	},
}

var profileTZCmd = &cobra.Command{
	Use:   "tz <zone>",
	Short: "Set the zone times are shown and entered in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.identity.SetViewerTimeZone(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Zone set to %s\n", args[0])
		return nil
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past display name changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log, err := app.identity.NameChangeLog(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(log)
			return nil
		}
		if len(log) == 0 {
			fmt.Println(ui.RenderMuted("No name changes."))
			return nil
		}
		zone, err := viewerZone(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tFROM\tTO")
		for _, ch := range log {
			fmt.Fprintf(tw, "%s\t%s\t%s\n",
				clock.UTCToLocal(ch.ChangedAt, zone, clock.PrecisionDateTime), ch.From, ch.To)
		}
		return tw.Flush()
	},
}

func init() {
	profileCmd.AddCommand(profileNameCmd)
	profileCmd.AddCommand(profileTZCmd)
	profileCmd.AddCommand(profileHistoryCmd)
}
