package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/relaynotify/notifyd/internal/adminapi"
	"github.com/relaynotify/notifyd/internal/budget"
	"github.com/relaynotify/notifyd/internal/config"
	"github.com/relaynotify/notifyd/internal/deliverylog"
	"github.com/relaynotify/notifyd/internal/push"
	"github.com/relaynotify/notifyd/internal/registry"
	"github.com/relaynotify/notifyd/internal/zlog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notifyd admission controller and admin surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires the device registry, delivery log, thread budget, and
// dispatcher together and runs until interrupted, coordinating the admin
// HTTP/WebSocket server and the dashboard hub through a single errgroup so
// either one failing tears down the other. The reaper runs outside the
// errgroup and is stopped when runServe returns.
func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logger := zlog.New(zlog.Config{ServiceName: "notifyd", Debug: cfg.Log.Debug, Format: cfg.Log.Format})
	defer logger.Sync()

	reg, closeRegistry, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRegistry()

	deliveryLog, closeLog, err := buildDeliveryLog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLog()

	metrics := budget.NewPromMetrics(prometheus.DefaultRegisterer)
	gate := budget.New(cfg.Budget.Limit, logger, budget.RealClock{})
	reaper := budget.StartReaper(gate, cfg.Budget.ReaperInterval, metrics, logger, budget.RealClock{})
	// Deferred calls run last-first: the reaper is stopped first, then the
	// gate stops admissions, cancels live tasks and waits for them to
	// finish.
	defer gate.ShutdownGraceful()
	defer reaper.Stop()

	limiter := push.NewProviderLimiter(cfg.Push.RateLimitPerSec, cfg.Push.RateLimitBurst)
	sender := push.NewHTTPSender(nil, func(p registry.Platform) string {
		if p == registry.PlatformFCM {
			return cfg.Push.FCMEndpoint
		}
		return cfg.Push.APNsEndpoint
	})
	dispatcher := push.NewDispatcher(reg, sender, gate, limiter, deliveryLog, logger)

	hub := adminapi.NewHub(gate, logger)
	server := adminapi.NewServer(gate, reg, dispatcher, hub, logger, cfg.Server.AuthToken)

	httpServer := &http.Server{Addr: cfg.Server.ListenAddr, Handler: server.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), budget.DefaultShutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info("notifyd admin surface listening", "addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return g.Wait()
}

func buildRegistry(cfg *config.Config, logger zlog.Logger) (registry.Registry, func(), error) {
	if cfg.Redis.Enabled {
		r, err := registry.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using Redis device registry", "addr", cfg.Redis.Addr)
		return r, func() { _ = r.Close() }, nil
	}
	logger.Info("using in-memory device registry")
	return registry.NewMemory(), func() {}, nil
}

func buildDeliveryLog(ctx context.Context, cfg *config.Config, logger zlog.Logger) (deliverylog.Log, func(), error) {
	if cfg.Postgres.Enabled {
		l, err := deliverylog.NewPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using Postgres delivery log")
		return l, l.Close, nil
	}
	logger.Info("using in-memory delivery log")
	return deliverylog.NewMemory(), func() {}, nil
}
