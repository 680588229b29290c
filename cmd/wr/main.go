package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/backend"
	"github.com/alfredjeanlab/warroom/internal/config"
	"github.com/alfredjeanlab/warroom/internal/identity"
	"github.com/alfredjeanlab/warroom/internal/kv"
	"github.com/alfredjeanlab/warroom/internal/store"
	"github.com/alfredjeanlab/warroom/internal/ui"
)

var (
	jsonOutput bool
	viewerTZ   string

	app *appState
)

// appState holds what every command shares. The record store is opened on
// first use so commands that never touch records work offline.
type appState struct {
	cfg      *config.Config
	logger   *slog.Logger
	clock    clockwork.Clock
	slots    *kv.SQLite
	identity *identity.Store

	opts  []backend.Option
	store *store.Store
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openApp() (*appState, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	slots, err := kv.OpenSQLite(cfg.DevicePath)
	if err != nil {
		return nil, err
	}
	clk := clockwork.NewRealClock()
	return &appState{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		slots:    slots,
		identity: identity.New(slots, clk, logger),
	}, nil
}

// Store returns the record store, opening the configured backend once.
func (a *appState) Store(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := backend.Open(ctx, a.cfg, a.slots, a.logger, a.opts...)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	a.store = s
	return s, nil
}

func (a *appState) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("error closing record store", "err", err)
		}
	}
	if err := a.slots.Close(); err != nil {
		a.logger.Warn("error closing device store", "err", err)
	}
}

var rootCmd = &cobra.Command{
	Use:           "wr <command>",
	Short:         "Shared war room log of sightings and activity",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&viewerTZ, "tz", "", "view times in this IANA zone (default: profile zone)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "log", Title: "Logging:"},
		&cobra.Group{ID: "views", Title: "Views:"},
		&cobra.Group{ID: "profile", Title: "Profile:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Logging
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(deleteCmd)

	// Views
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(zonesCmd)

	// Profile
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(setupCmd)

	// System
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: .env: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
