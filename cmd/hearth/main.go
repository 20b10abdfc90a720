package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/hearth/internal/backup"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/server"
)

const usage = `usage: hearth [command]

commands:
  (none)                  run the HTTP server
  backup                  upload one database backup and exit
  list-backups            print stored backups as JSON
  restore <key> <path>    download a backup into a new database file

HEARTH_IDENTITY_KEY is required only when running the server.
`

func main() {
	load := config.Load
	if len(os.Args) > 1 {
		load = config.LoadOffline
	}
	cfg, err := load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) > 1 {
		if err := runCommand(cfg, logger, os.Args[1:]); err != nil {
			logger.Error("command failed", "command", os.Args[1], "error", err)
			os.Exit(1)
		}
		return
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, metrics.NewPrometheus(), logger)
	backups := backup.NewManager(cfg.Backup(), db, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	// Background jobs. Verification code cleanup runs here, never inside
	// the service.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	if cfg.CleanupInterval > 0 {
		go runCleanup(bgCtx, srv, cfg.CleanupInterval, logger)
	}
	if backups.Enabled() && cfg.BackupInterval > 0 {
		go runBackups(bgCtx, backups, cfg.BackupInterval, cfg.BackupRetention, logger)
	} else {
		logger.Info("scheduled backups disabled")
	}

	go func() {
		logger.Info("hearth starting", "addr", cfg.Addr(), "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func runCleanup(ctx context.Context, srv *server.Server, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := srv.Service().CleanupExpiredCodes(ctx); err != nil {
				logger.Error("cleanup verification codes", "error", err)
			}
			srv.RateLimiter().Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

func runBackups(ctx context.Context, m *backup.Manager, interval, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := m.Run(ctx); err != nil {
				logger.Error("scheduled backup", "error", err)
				continue
			}
			if retention > 0 {
				if _, err := m.Prune(ctx, retention); err != nil {
					logger.Error("prune backups", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func runCommand(cfg *config.Config, logger *slog.Logger, args []string) error {
	ctx := context.Background()

	switch args[0] {
	case "backup":
		db, err := database.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		obj, err := backup.NewManager(cfg.Backup(), db, logger).Run(ctx)
		if err != nil {
			return err
		}
		fmt.Println(obj.Key)
		return nil

	case "list-backups":
		objects, err := backup.NewManager(cfg.Backup(), nil, logger).List(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(objects)

	case "restore":
		if len(args) != 3 {
			return fmt.Errorf("restore takes <key> <path>\n%s", usage)
		}
		return backup.NewManager(cfg.Backup(), nil, logger).Restore(ctx, args[1], args[2])

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}
