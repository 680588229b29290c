package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list <category>",
	Short:   "List records, newest first",
	GroupID: "views",
	Long: `List a category newest first. Categories: activities, gatherNodes, mobHits
(aliases: activity, node, hostile).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := model.ParseCategory(args[0])
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		subject, _ := cmd.Flags().GetString("subject")

		s, err := app.Store(ctx)
		if err != nil {
			return err
		}
		records, err := s.ListAll(ctx, c)
		if err != nil {
			return err
		}
		records = filterRecords(records, subject, limit)

		if jsonOutput {
			printJSON(records)
			return nil
		}
		zone, err := viewerZone(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println(ui.RenderMuted("No records."))
			return nil
		}
		fmt.Printf("%s %s\n", ui.RenderAccent(ui.CategoryTitle(c)), ui.RenderMuted("("+zone.String()+")"))
		writeRecordTable(os.Stdout, c, records, zone)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <category> <id>...",
	Short:   "Delete records",
	GroupID: "log",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := model.ParseCategory(args[0])
		if err != nil {
			return err
		}
		s, err := app.Store(ctx)
		if err != nil {
			return err
		}
		for _, id := range args[1:] {
			if err := s.Delete(ctx, c, id); err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Printf("Deleted %s %s\n", c, id)
			}
		}
		if jsonOutput {
			printJSON(map[string]any{"category": c, "deleted": args[1:]})
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int("limit", 0, "show at most this many records (0 = all)")
	listCmd.Flags().String("subject", "", "only records for this subject (case-insensitive)")
}

// filterRecords keeps records for subject (all when blank), up to limit.
func filterRecords(records []model.Record, subject string, limit int) []model.Record {
	out := records
	if strings.TrimSpace(subject) != "" {
		out = make([]model.Record, 0, len(records))
		for _, r := range records {
			if model.SameSubject(r.SubjectTag, subject) {
				out = append(out, r)
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
