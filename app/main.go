package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Jaymelynng/master-events-calendar-sub000/app/api"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/cfg"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/database"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/events"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/portal"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/source"
	"github.com/Jaymelynng/master-events-calendar-sub000/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Optional .env for local development; real deployments use the environment
	_ = godotenv.Load()

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	if appConfig.Debug {
		// slog.SetLogLoggerLevel requires Go 1.22; emulate it on the
		// installed toolchain by installing a debug-level default handler.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	slog.Info("Starting Master Events Calendar server...", "version", appConfig.Version)

	// Database connection
	db, err := database.NewConnection(
		appConfig.DBHost, appConfig.DBPort, appConfig.DBUser,
		appConfig.DBPassword, appConfig.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	// Portal configurations
	configCache := portal.NewConfigCache(appConfig.PortalsDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load portal configurations:", err)
	}
	slog.Info("Portal configurations loaded", "count", configCache.GetConfigCount())

	// Repositories
	eventRepo := database.NewEventRepository(db)
	auditRepo := database.NewAuditRepository(db)

	// Core components
	client := source.NewClient(time.Duration(appConfig.FetchTimeout)*time.Second, appConfig.UserAgent)
	paginator := source.NewPaginator(client)
	crawler := source.NewCrawler(client, appConfig.SourceAPIBase, appConfig.PublicHost)
	normalizer := events.NewNormalizer(appConfig.PublicHost)
	reconciler := events.NewReconciler()

	// Background scheduler
	scheduler := tasks.NewScheduler(configCache, eventRepo, auditRepo, crawler, normalizer, reconciler)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appConfig.WorkerCount, "interval", appConfig.SchedulerInterval)

	// HTTP server
	handler := api.NewHandler(eventRepo, auditRepo, crawler, paginator, normalizer,
		reconciler, configCache, scheduler, appConfig.ServiceRoleKey)
	server := api.NewServer(handler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
