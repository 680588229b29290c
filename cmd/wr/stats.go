package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/stats"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show activity patterns across all categories",
	GroupID: "views",
	Long: `Summarize every category: totals, the hour-of-day heatmap in your zone,
peak hours, the most reported subjects and level spreads. With --subject,
show one subject's profile instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		subject, _ := cmd.Flags().GetString("subject")

		s, err := app.Store(ctx)
		if err != nil {
			return err
		}
		zone, err := viewerZone(ctx)
		if err != nil {
			return err
		}
		d, err := stats.Load(ctx, s)
		if err != nil {
			return err
		}

		if strings.TrimSpace(subject) != "" {
			p := stats.SubjectProfile(d, subject, zone)
			if jsonOutput {
				printJSON(p)
				return nil
			}
			writeProfile(os.Stdout, p, zone.String())
			return nil
		}

		report := stats.Build(d, zone)
		if jsonOutput {
			printJSON(report)
			return nil
		}
		writeReport(os.Stdout, report, ui.Width())
		return nil
	},
}

func init() {
	statsCmd.Flags().String("subject", "", "show the profile of one subject")
}

func writeReport(w io.Writer, r stats.Report, width int) {
	s := r.Summary
	fmt.Fprintf(w, "%s  %d sightings, %d subjects (%d activity, %d nodes, %d hostile)\n\n",
		ui.RenderAccent("Summary"), s.TotalSightings, s.ActiveSubjects,
		s.PresenceReports, s.ResourceReports, s.HostileReports)

	fmt.Fprintf(w, "%s %s\n", ui.RenderAccent("Hour of day"), ui.RenderMuted("("+r.Zone+")"))
	top := slices.Max(r.Heatmap[:])
	barWidth := max(10, min(50, width-12))
	for h, n := range r.Heatmap {
		fmt.Fprintf(w, "  %02d:00 %4d %s\n", h, n, ui.Bar(n, top, barWidth))
	}

	if len(r.PeakHours) > 0 {
		peaks := make([]string, len(r.PeakHours))
		for i, p := range r.PeakHours {
			peaks[i] = fmt.Sprintf("%02d:00 (%d)", p.Hour, p.Count)
		}
		fmt.Fprintf(w, "\n%s  %s\n", ui.RenderAccent("Peak hours"), strings.Join(peaks, ", "))
	}

	if len(r.TopSubjects) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.RenderAccent("Top subjects"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for i, sc := range r.TopSubjects {
			fmt.Fprintf(tw, "  %d.\t%s\t%d\n", i+1, sc.Subject, sc.Count)
		}
		tw.Flush()
	}

	writeLevels(w, "Node levels", model.CategoryResource, r.NodeLevels)
	writeLevels(w, "Hostile levels", model.CategoryHostile, r.HostileLevels)
}

func writeLevels(w io.Writer, title string, c model.Category, levels []stats.LevelCount) {
	var parts []string
	for _, lc := range levels {
		if lc.Count > 0 {
			parts = append(parts, ui.RenderCategory(c, fmt.Sprintf("L%d", lc.Level))+fmt.Sprintf(" %d", lc.Count))
		}
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s  %s\n", ui.RenderAccent(title), strings.Join(parts, ", "))
}

func writeProfile(w io.Writer, p stats.Profile, zone string) {
	fmt.Fprintf(w, "%s  %d reports (%d activity, %d nodes, %d hostile)\n",
		ui.RenderAccent(p.Subject), p.Total, p.Presence, p.Resource, p.Hostile)
	if p.Total == 0 {
		return
	}
	fmt.Fprintf(w, "Peak hour:       %02d:00 %s\n", p.PeakHour, ui.RenderMuted("("+zone+")"))
	if p.TopNodeLevel > 0 {
		fmt.Fprintf(w, "Usual node:      L%d\n", p.TopNodeLevel)
	}
	if p.TopHostileLevel > 0 {
		fmt.Fprintf(w, "Usual hostile:   L%d\n", p.TopHostileLevel)
	}
	for _, k := range model.ActivityKinds {
		if n := p.Activities[k]; n > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", ui.Label(string(k)), n)
		}
	}
}
