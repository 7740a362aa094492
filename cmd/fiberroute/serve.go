package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fiber_router/pkg/api"
	"fiber_router/pkg/logging"
	"fiber_router/pkg/observability"
	"fiber_router/pkg/routing"
	"fiber_router/pkg/store"
	"fiber_router/pkg/upstream"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr       string
		snapshotDB string
		refresh    string
		filter     string
		corsOrigin string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /calculate over live upstream geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				a.cfg.Addr = addr
			}
			if flags.Changed("snapshot-db") {
				a.cfg.SnapshotDB = snapshotDB
			}
			if flags.Changed("refresh") {
				a.cfg.RefreshSchedule = refresh
			}
			if flags.Changed("submarine-filter") {
				a.cfg.SubmarineFilter = filter
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a, corsOrigin)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides FIBER_ADDR)")
	cmd.Flags().StringVar(&snapshotDB, "snapshot-db", "", "SQLite file for persisting upstream geometry")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Cron spec for refreshing cached geometry; empty disables")
	cmd.Flags().StringVar(&filter, "submarine-filter", "", "Submarine filter policy: longitude, bbox, none")
	cmd.Flags().StringVar(&corsOrigin, "cors-origin", "", "CORS allowed origin (empty = same-origin)")
	return cmd
}

func serve(ctx context.Context, a *app, corsOrigin string) error {
	cfg, log := a.cfg, a.log

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}

	var snapshots upstream.SnapshotStore
	if cfg.SnapshotDB != "" {
		db, err := store.OpenDB(cfg.SnapshotDB)
		if err != nil {
			return err
		}
		defer db.Close()
		stored, err := db.Sources(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "snapshot store opened",
			logging.String("path", cfg.SnapshotDB),
			logging.Any("sources", stored),
		)
		snapshots = db
	}

	cache := upstream.NewCache(upstream.NewClient(cfg.Client(metrics)), snapshots, log)
	go func() {
		if err := cache.Warm(ctx); err != nil {
			log.Warn(ctx, "initial geometry fetch failed; retrying on first request", logging.Err(err))
		}
	}()
	if cfg.RefreshSchedule != "" {
		if err := cache.Start(cfg.RefreshSchedule); err != nil {
			return err
		}
		defer cache.Stop()
	}

	engine := routing.NewEngine(cfg.Params(), log)
	params := engine.Params()
	svc := routing.NewService(engine, cache, routing.ServiceOptions{
		BBoxPad: cfg.BBoxPadDeg,
		Metrics: metrics,
		Logger:  log,
	})

	stats := func() api.StatsResponse {
		resp := api.StatsResponse{
			SubmarineFilter: string(params.SubmarineFilter),
			SubmarineCost:   params.SubmarineCost,
			BBoxPad:         cfg.BBoxPadDeg,
			Datasets:        []api.DatasetStats{},
		}
		for _, d := range cache.Datasets() {
			resp.Datasets = append(resp.Datasets, api.DatasetStats{
				Source:    string(d.Source),
				Features:  d.Features,
				FetchedAt: d.FetchedAt,
			})
		}
		return resp
	}

	srvCfg := api.DefaultConfig(cfg.Addr)
	srvCfg.CORSOrigin = corsOrigin
	srv := api.NewServer(srvCfg, api.NewHandlers(svc, stats), metrics.Handler(), log)

	log.Info(ctx, "starting fiberroute",
		logging.String("addr", cfg.Addr),
		logging.String("submarine_filter", string(params.SubmarineFilter)),
		logging.String("refresh", cfg.RefreshSchedule),
		logging.String("snapshot_db", cfg.SnapshotDB),
	)
	return api.ListenAndServe(ctx, srv, log)
}
