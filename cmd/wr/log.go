package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/model"
)

var logCmd = &cobra.Command{
	Use:     "log",
	Short:   "Record an observation",
	GroupID: "log",
	Long: `Record an observation in one of the shared categories.

The time is read as a wall clock in --zone (default: your profile zone) and
stored as an absolute instant, so teammates in other zones see it in theirs.`,
}

var logActivityCmd = &cobra.Command{
	Use:   "activity <subject> <kind>",
	Short: "Report what a subject is doing (activities)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLog(cmd, model.CategoryPresence, model.Record{
			SubjectTag: args[0],
			Activity:   model.ActivityKind(strings.ToLower(args[1])),
		})
	},
}

var logNodeCmd = &cobra.Command{
	Use:   "node <subject> <kind> <level>",
	Short: "Report a resource node sighting (gatherNodes)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(args[2])
		if err != nil {
			return err
		}
		return runLog(cmd, model.CategoryResource, model.Record{
			SubjectTag: args[0],
			Resource:   model.ResourceKind(strings.ToLower(args[1])),
			NodeLevel:  level,
		})
	},
}

var logHostileCmd = &cobra.Command{
	Use:   "hostile <subject> <kind> <level>",
	Short: "Report a hostile hit (mobHits)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(args[2])
		if err != nil {
			return err
		}
		return runLog(cmd, model.CategoryHostile, model.Record{
			SubjectTag:   args[0],
			Hostile:      model.HostileKind(strings.ToLower(args[1])),
			HostileLevel: level,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{logActivityCmd, logNodeCmd, logHostileCmd} {
		c.Flags().String("at", "", "local wall clock YYYY-MM-DDTHH:MM (default: now)")
		c.Flags().String("zone", "", "IANA zone the --at value is read in (default: profile zone)")
		c.Flags().String("coords", "", "map coordinates")
		c.Flags().String("notes", "", "free-form notes")
		logCmd.AddCommand(c)
	}
}

// parseLevel accepts "18" or "L18".
func parseLevel(s string) (int, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "L")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid level %q", s)
	}
	return n, nil
}

// resolveInstant converts the --at wall clock in zone to an instant. An
// empty value means now.
func resolveInstant(at string, zone *time.Location) (time.Time, error) {
	if strings.TrimSpace(at) == "" {
		return app.clock.Now().UTC(), nil
	}
	wc, err := clock.ParseWallClock(strings.TrimSpace(at))
	if err != nil {
		return time.Time{}, err
	}
	return clock.LocalToUTC(wc, zone), nil
}

func runLog(cmd *cobra.Command, c model.Category, draft model.Record) error {
	ctx := cmd.Context()
	at, _ := cmd.Flags().GetString("at")
	zoneName, _ := cmd.Flags().GetString("zone")
	coords, _ := cmd.Flags().GetString("coords")
	notes, _ := cmd.Flags().GetString("notes")

	reporter, err := app.identity.DisplayName(ctx)
	if err != nil {
		return err
	}
	if reporter == "" {
		return errors.New("no display name set; run 'wr setup' or 'wr profile name <name>'")
	}

	zoneName, zone, err := reporterZone(ctx, zoneName)
	if err != nil {
		return err
	}
	occurred, err := resolveInstant(at, zone)
	if err != nil {
		return err
	}

	draft.SubjectTag = strings.TrimSpace(draft.SubjectTag)
	draft.OccurredAt = occurred
	draft.Coords = model.Optional(coords)
	draft.Notes = model.Optional(notes)
	draft.ReporterName = reporter
	draft.ReporterTimeZone = zoneName

	if err := model.ValidateRecord(c, draft); err != nil {
		return err
	}

	s, err := app.Store(ctx)
	if err != nil {
		return err
	}
	rec, err := s.Create(ctx, c, draft)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(rec)
		return nil
	}
	viewer, err := viewerZone(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Logged %s: ", c)
	printRecordLine(os.Stdout, c, rec, viewer)
	return nil
}

// reporterZone resolves --zone, defaulting to the profile zone.
func reporterZone(ctx context.Context, name string) (string, *time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		var err error
		if name, err = app.identity.ViewerTimeZone(ctx); err != nil {
			return "", nil, err
		}
	}
	zone, err := clock.LoadZone(name)
	if err != nil {
		return "", nil, err
	}
	return name, zone, nil
}

// viewerZone resolves the persistent --tz flag, defaulting to the profile zone.
func viewerZone(ctx context.Context) (*time.Location, error) {
	_, zone, err := reporterZone(ctx, viewerTZ)
	return zone, err
}
