package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/identity"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var setupCmd = &cobra.Command{
	Use:     "setup",
	Short:   "First-run setup of your name and zone",
	GroupID: "profile",
	Long: `Ask for the name stamped on your reports and the zone you read clocks in,
then mark setup as done. Pass --name and --zone to skip the prompts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		tz, _ := cmd.Flags().GetString("zone")
		force, _ := cmd.Flags().GetBool("force")

		ctx := cmd.Context()
		done, err := app.identity.SetupCompleted(ctx)
		if err != nil {
			return err
		}
		if done && !force {
			fmt.Println("Setup already completed. Use 'wr profile' to change settings, or --force to rerun.")
			return nil
		}

		var in *bufio.Reader
		if ui.IsInteractive() {
			in = bufio.NewReader(os.Stdin)
		}
		return runSetup(ctx, app.identity, in, os.Stdout, name, tz)
	},
}

func init() {
	setupCmd.Flags().String("name", "", "display name")
	setupCmd.Flags().String("zone", "", "IANA time zone (default: detected)")
	setupCmd.Flags().Bool("force", false, "run even if setup was completed")
}

// runSetup fills name and zone from the flags, prompting on in for any that
// are missing. A nil reader disables prompting.
func runSetup(ctx context.Context, id *identity.Store, in *bufio.Reader, out io.Writer, name, tz string) error {
	current, err := id.Snapshot(ctx)
	if err != nil {
		return err
	}

	if strings.TrimSpace(name) == "" {
		name = current.DisplayName
		if in != nil {
			if name, err = prompt(in, out, "Display name", current.DisplayName); err != nil {
				return err
			}
		}
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("a display name is required (use --name)")
	}

	if strings.TrimSpace(tz) == "" {
		tz = current.ViewerTimeZone
		if in != nil {
			if tz, err = prompt(in, out, "Time zone ('wr zones' lists them)", current.ViewerTimeZone); err != nil {
				return err
			}
		}
	}
	if _, err := clock.LoadZone(tz); err != nil {
		return err
	}

	if err := id.SetDisplayName(ctx, name); err != nil {
		return err
	}
	if err := id.SetViewerTimeZone(ctx, tz); err != nil {
		return err
	}
	if err := id.MarkSetupCompleted(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Ready. Reporting as %s in %s.\n", strings.TrimSpace(name), tz)
	return nil
}

// prompt asks for a value, returning def on an empty answer.
func prompt(in *bufio.Reader, out io.Writer, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if v := strings.TrimSpace(line); v != "" {
		return v, nil
	}
	return def, nil
}
