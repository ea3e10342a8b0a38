package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/metadex/metadex/internal/api"
	"github.com/metadex/metadex/internal/config"
	"github.com/metadex/metadex/internal/database"
	"github.com/metadex/metadex/internal/health"
	"github.com/metadex/metadex/internal/logger"
	"github.com/metadex/metadex/internal/metadata"
	"github.com/metadex/metadex/internal/metadata/mock"
	"github.com/metadex/metadex/internal/metrics"
	"github.com/metadex/metadex/internal/profiles"
	"github.com/metadex/metadex/internal/scheduler"
	"github.com/metadex/metadex/internal/scheduler/tasks"
	"github.com/metadex/metadex/internal/startup"
	"github.com/metadex/metadex/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file")
	devMode := flag.Bool("dev", false, "Register sample providers and profiles")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if *devMode {
		cfg.Metadata.DevMode = true
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("commit", config.Commit).
		Str("logLevel", cfg.Logging.Level).
		Str("logFile", log.FilePath()).
		Bool("devMode", cfg.Metadata.DevMode).
		Msg("starting metadex")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, &log.Logger); err != nil {
		log.Error().Err(err).Msg("metadex stopped with error")
		log.Close()
		os.Exit(1)
	}
	log.Info().Msg("metadex stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zerolog.Logger) error {
	var db *database.DB
	err := startup.WithRetry(ctx, "open database", startup.DefaultRetryConfig(), func(ctx context.Context) error {
		var openErr error
		db, openErr = database.New(ctx, cfg.Database.Path)
		return openErr
	}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("path", db.Path()).Msg("running database migrations")
	if err := startup.WithRetry(ctx, "migrate database", startup.DefaultRetryConfig(), db.Migrate, log); err != nil {
		return err
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	healthSvc := health.NewService(log)
	healthSvc.SetBroadcaster(hub)
	dbCheck := health.NewDatabaseChecker(healthSvc, db.Conn())

	cacheCfg := profiles.DefaultCacheConfig()
	if ttl, err := time.ParseDuration(cfg.Metadata.ProfileCacheTTL); err == nil {
		cacheCfg.TTL = ttl
	} else {
		log.Warn().Err(err).Str("ttl", cfg.Metadata.ProfileCacheTTL).Msg("invalid profile cache TTL, using default")
	}
	cache := profiles.NewCache(cacheCfg)
	go cache.RunCleanup(ctx, time.Minute)
	store := profiles.NewCachedStore(profiles.NewStore(db.Conn()), cache)

	metaSvc := metadata.NewService(store, metadata.StaticLocale(cfg.Metadata.DefaultLocale), log)
	metaSvc.SetHealthService(healthSvc)
	metaSvc.SetMetrics(metrics.NewRecorder())
	metaSvc.SetBroadcaster(hub)

	profileSvc := profiles.NewService(store, metaSvc, log)
	profileSvc.SetBroadcaster(hub)

	metrics.RegisterGauges(cache, hub)

	if err := seed(ctx, cfg, metaSvc, profileSvc, log); err != nil {
		return err
	}

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if err := tasks.RegisterProfileValidationTask(sched, metaSvc, cfg.Scheduler.ProfileValidationCron, cfg.Scheduler.RunOnStart, log); err != nil {
		return err
	}
	if err := tasks.RegisterDatabaseHealthTask(sched, dbCheck, log); err != nil {
		return err
	}
	sched.Start()

	server := api.NewServer(api.Deps{
		Metadata:  metaSvc,
		Profiles:  profileSvc,
		Health:    healthSvc,
		DBCheck:   dbCheck,
		Hub:       hub,
		Scheduler: sched,
	}, cfg.Server, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(cfg.Server.Address())
	}()

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("HTTP server shutdown failed")
	}
	if stopErr := sched.Stop(); stopErr != nil {
		log.Warn().Err(stopErr).Msg("scheduler shutdown failed")
	}
	return err
}

// seed registers the sample providers in developer mode and loads seed profiles.
// Existing profiles are never overwritten.
func seed(ctx context.Context, cfg *config.Config, metaSvc *metadata.Service, profileSvc *profiles.Service, log *zerolog.Logger) error {
	var seeds []*metadata.Profile
	if cfg.Metadata.DevMode {
		for _, p := range mock.SampleProviders() {
			if err := metaSvc.RegisterProvider(p); err != nil {
				return err
			}
		}
		seeds = append(seeds, mock.SampleProfiles()...)
	}
	if path := cfg.Metadata.SeedProfilesPath; path != "" {
		fromFile, err := profiles.LoadSeedFile(path)
		if err != nil {
			return err
		}
		seeds = append(seeds, fromFile...)
	}
	if len(seeds) == 0 {
		return nil
	}

	created, err := profileSvc.Seed(ctx, seeds)
	if err != nil {
		return err
	}
	log.Info().Int("created", created).Int("total", len(seeds)).Msg("seeded profiles")
	return nil
}
