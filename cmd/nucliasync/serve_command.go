package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nucliasync/internal/content"
	"nucliasync/internal/daemon"
	"nucliasync/internal/indexstore"
	"nucliasync/internal/logging"
	"nucliasync/internal/metrics"
	"nucliasync/internal/nuclia"
	"nucliasync/internal/proxy"
	"nucliasync/internal/queue"
	"nucliasync/internal/syncer"
	"nucliasync/internal/worker"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd, ctx)
		},
	}
}

func runDaemonProcess(cmd *cobra.Command, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	// Tag every log line with a run id so restarts are distinguishable
	// in shared log files.
	logger = logger.With(logging.String("run_id", uuid.NewString()))

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job queue: %w", err)
	}
	defer store.Close()

	records, err := indexstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open index records: %w", err)
	}
	defer records.Close()

	source, err := content.OpenPostgres(cfg.ContentDB.DSN)
	if err != nil {
		return err
	}
	defer source.Close()

	remote, err := nuclia.New(cfg, logger)
	if err != nil {
		return err
	}

	set := metrics.NewSet()
	sync := syncer.New(cfg, source, store, records, remote, logger)
	pool := worker.NewPool(cfg, store, logger, set)
	sync.RegisterHandlers(pool)

	var gateway *proxy.Gateway
	if cfg.Proxy.Enabled {
		gateway = proxy.NewGateway(cfg, logger, set)
	}

	d, err := daemon.New(cfg, store, records, sync, pool, gateway, set, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	d.SetReachabilityCheck(remote.CheckReachable)

	if err := d.Start(signalCtx); err != nil {
		return err
	}
	defer d.Stop()

	if err := source.Ping(signalCtx); err != nil {
		logger.Warn("content database unreachable at startup", logging.Error(err))
	}

	<-signalCtx.Done()
	logger.Info("shutdown signal received")
	return nil
}
