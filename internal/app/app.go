package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sftp-gateway/internal/config"
	"sftp-gateway/internal/database"
	"sftp-gateway/internal/handler"
	"sftp-gateway/internal/logger"
	"sftp-gateway/internal/middleware"
	"sftp-gateway/internal/remote"
	"sftp-gateway/internal/repository"
	"sftp-gateway/internal/retention"
	"sftp-gateway/internal/router"
	"sftp-gateway/internal/scheduler"
	"sftp-gateway/internal/service"
)

type App struct {
	server        *http.Server
	metricsServer *http.Server
	scheduler     *scheduler.Scheduler
	cleanupFuncs  []func()
}

func New(logLevel *slog.LevelVar) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != nil {
		logLevel.Set(logger.ParseLevel(cfg.LogLevel))
	}

	dialer, err := remote.NewSFTPDialer(cfg.SFTP)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sftp dialer: %w", err)
	}

	paths, err := remote.NewPathValidator(cfg.RemoteRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote root: %w", err)
	}

	var cleanupFuncs []func()

	prefStore, closeStore, err := openPreferenceStore(cfg)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		cleanupFuncs = append(cleanupFuncs, closeStore)
	}

	policy := retention.DefaultPolicy()
	sweeper := retention.NewSweeper(dialer, cfg.RecycleBinPath, policy,
		retention.WithConcurrency(cfg.SweepConcurrency),
		retention.WithTimeout(cfg.SweepTimeout),
	)

	sched := scheduler.New(time.Local)
	entryID, err := sched.Add("recycle-bin-cleanup", scheduler.DailySweepSpec, sweeper.RunScheduled)
	if err != nil {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
		return nil, err
	}

	gateService := service.NewGateService(cfg.AccessPIN, cfg.SessionSecret, cfg.SessionTTL)
	staticHandler := handler.NewStaticHandler(cfg.StaticDir)
	gate := middleware.NewPINGate(gateService, http.HandlerFunc(staticHandler.Index), router.GateExemptPaths()...)

	appRouter := router.New(cfg, gate, router.Handlers{
		PIN:         handler.NewPINHandler(gateService, cfg.CookieSecure),
		Directory:   handler.NewDirectoryHandler(service.NewDirectoryService(dialer, paths)),
		File:        handler.NewFileHandler(service.NewFileService(dialer, paths)),
		Trash:       handler.NewTrashHandler(service.NewTrashService(dialer, paths, cfg.RecycleBinPath, policy)),
		Preferences: handler.NewPreferenceHandler(service.NewPreferenceService(prefStore)),
		Static:      staticHandler,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           router.NewMetrics(),
			ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		}
	}

	sched.Start()
	slog.Info("recycle bin cleanup scheduled",
		"directory", sweeper.Directory(),
		"threshold_days", policy.ThresholdDays(),
		"next_run", sched.NextRun(entryID),
	)

	return &App{
		server:        server,
		metricsServer: metricsServer,
		scheduler:     sched,
		cleanupFuncs:  cleanupFuncs,
	}, nil
}

// openPreferenceStore picks Postgres when DATABASE_URL is set and the JSON
// file otherwise.
func openPreferenceStore(cfg *config.Config) (service.PreferenceStore, func(), error) {
	if cfg.DatabaseURL == "" {
		store, err := repository.OpenPreferenceFile(cfg.PreferencesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open preferences file: %w", err)
		}
		slog.Info("preferences stored in file", "path", cfg.PreferencesFile)
		return store, nil, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	return repository.NewPreferenceRepository(db.Pool), db.Close, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 2)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if a.metricsServer != nil {
		go func() {
			slog.Info("metrics listener starting", "addr", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("graceful shutdown failed: %w", err))
	}
	if a.metricsServer != nil {
		_ = a.metricsServer.Shutdown(ctx)
	}

	// A sweep in progress gets the same grace period as open requests.
	if err := a.scheduler.Stop(ctx); err != nil {
		slog.Warn("scheduler did not stop in time", "error", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return runErr
}
