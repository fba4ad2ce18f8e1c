package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"busboard/internal/cache"
	"busboard/internal/config"
	"busboard/internal/events"
	"busboard/internal/naptan"
	"busboard/internal/snapshot"
	"busboard/internal/validate"
	"busboard/internal/weather"
	"busboard/pkg/openmeteo"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:\n"+
		"    busboard import   [--source URL|PATH] [--dest PATH] [--prefix P|all] [--rtree]\n"+
		"    busboard validate [--db PATH]\n"+
		"    busboard snapshot [--watch]\n"+
		"    busboard weather\n"+
		"    busboard events   [--watch]")
}

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "import":
		err = runImport(ctx, args, cfg, logger)
	case "validate":
		err = runValidate(args, cfg, logger)
	case "snapshot":
		err = runSnapshot(ctx, args, cfg, logger)
	case "weather":
		err = runWeather(ctx, cfg, logger)
	case "events":
		err = runEvents(ctx, args, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := pflag.NewFlagSet("import", pflag.ExitOnError)
	source := fs.String("source", cfg.NaptanSource, "NaPTAN CSV url or local path")
	dest := fs.String("dest", cfg.NaptanDest, "published database path")
	prefix := fs.String("prefix", cfg.NaptanPrefix, "ATCO code prefix filter, or 'all'")
	rtree := fs.Bool("rtree", cfg.NaptanRTree, "build the spatial index when supported")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := naptan.Run(ctx, naptan.Options{
		Source:    *source,
		Dest:      *dest,
		Prefix:    *prefix,
		RTree:     *rtree,
		BatchSize: cfg.BatchSize,
	}, logger)
	if err != nil {
		return err
	}

	logger.Info("import report",
		"run_id", report.RunID,
		"seen", report.Stats.Seen,
		"kept", report.Stats.Kept,
		"skipped", report.Stats.Skipped,
		"rtree", report.RTree,
		"min_lat", report.Stats.BBox.MinLat,
		"max_lat", report.Stats.BBox.MaxLat,
		"min_lng", report.Stats.BBox.MinLng,
		"max_lng", report.Stats.BBox.MaxLng,
	)
	return nil
}

func runValidate(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	db := fs.String("db", cfg.NaptanDest, "published database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := validate.Run(*db)
	if err != nil {
		return err
	}

	logger.Info("dataset valid",
		"path", res.Path,
		"rows", res.Rows,
		"rtree", res.RTree,
		"rtree_rows", res.RTreeRows,
		"min_lat", res.BBox.MinLat,
		"max_lat", res.BBox.MaxLat,
		"min_lng", res.BBox.MinLng,
		"max_lng", res.BBox.MaxLng,
	)
	return nil
}

func runSnapshot(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := pflag.NewFlagSet("snapshot", pflag.ExitOnError)
	watch := fs.Bool("watch", false, "keep snapshotting on an interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if cfg.TripUpdatesURL == "" && cfg.VehiclePositionsURL == "" {
		return fmt.Errorf("no GTFS-RT feed urls configured")
	}

	snap := snapshot.New(cfg.TripUpdatesURL, cfg.VehiclePositionsURL, cfg.SnapshotDir, logger)
	if *watch {
		snap.Watch(ctx, cfg.SnapshotInterval)
		return nil
	}
	return snap.Run(ctx)
}

func runWeather(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := newCache(cfg, logger)
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
	}

	svc := weather.NewService(
		openmeteo.New(cfg.WeatherBaseURL),
		c, cfg.WeatherCacheTTL, cfg.WeatherLat, cfg.WeatherLng, logger,
	)
	_, err = svc.Current(ctx)
	return err
}

func runEvents(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := pflag.NewFlagSet("events", pflag.ExitOnError)
	watch := fs.Bool("watch", false, "keep scraping on an interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sources, err := events.LoadSources(cfg.EventSourcesPath)
	if err != nil {
		return err
	}

	c, err := newCache(cfg, logger)
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
	}

	scraper := events.NewScraper(sources, cfg.EventsOut, c, cfg.CacheTTL, logger)
	if *watch {
		scraper.Watch(ctx, cfg.EventsInterval)
		return nil
	}
	_, err = scraper.Run(ctx)
	return err
}

func newCache(cfg *config.Config, logger *slog.Logger) (*cache.RedisCache, error) {
	if !cfg.RedisEnabled {
		return nil, nil
	}
	return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
}
