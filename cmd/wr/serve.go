package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/warroom/internal/backend"
	"github.com/alfredjeanlab/warroom/internal/config"
	"github.com/alfredjeanlab/warroom/internal/events"
	"github.com/alfredjeanlab/warroom/internal/metrics"
	"github.com/alfredjeanlab/warroom/internal/server"
	"github.com/alfredjeanlab/warroom/internal/store"
	wrsync "github.com/alfredjeanlab/warroom/internal/sync"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the log over HTTP and gRPC health",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.cfg
		logger := app.logger

		m := metrics.NewManager()
		app.opts = append(app.opts, backend.WithMetrics(m))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := app.Store(ctx)
		if err != nil {
			return err
		}

		var publisher events.Publisher = &events.NoopPublisher{}
		if cfg.EventsURL != "" {
			pub, err := events.NewNATSPublisher(cfg.EventsURL, cfg.RemoteToken, logger)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("record events enabled", "url", cfg.EventsURL)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		srv := server.New(st,
			server.WithIdentity(app.identity),
			server.WithMetrics(m),
			server.WithPublisher(publisher),
			server.WithClock(app.clock),
			server.WithLogger(logger),
		)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer srv.Close()

		grpcServer, health := server.NewGRPCServer(cfg.APIToken, logger)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.APIToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startSync(ctx, cfg, st)

		logger.Info("war room server started",
			"mode", st.Mode(),
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
		)

		<-ctx.Done()
		logger.Info("shutting down")

		health.Shutdown()
		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("shutdown complete")
		return nil
	},
}

// startSync starts the export scheduler when an interval and at least one
// destination are configured.
func startSync(ctx context.Context, cfg *config.Config, st *store.Store) *wrsync.Scheduler {
	logger := app.logger
	if cfg.SyncInterval <= 0 {
		return nil
	}

	var dests []wrsync.Destination
	if cfg.SyncS3Bucket != "" {
		s3Dest, err := wrsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			logger.Error("failed to create S3 sync destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("sync S3 destination enabled", "bucket", cfg.SyncS3Bucket, "key", cfg.SyncS3Key)
		}
	}
	if cfg.SyncGitRepo != "" {
		dests = append(dests, wrsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch))
		logger.Info("sync git destination enabled", "repo", cfg.SyncGitRepo, "file", cfg.SyncGitFile)
	}
	if len(dests) == 0 {
		return nil
	}

	scheduler := wrsync.NewScheduler(st, dests, cfg.SyncInterval, app.clock, logger)
	scheduler.Start(ctx)
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return scheduler
}
