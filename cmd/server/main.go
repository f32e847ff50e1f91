package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/suchetaslalom-sf/mcp-key-server/internal/api"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/apikey"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/auth"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/config"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/database"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/installer"
	"github.com/suchetaslalom-sf/mcp-key-server/internal/npmpkg"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel, cfg.Debug)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenManager(cfg.SecretKey, cfg.Algorithm, time.Duration(cfg.TokenExpiryMinutes)*time.Minute)
	if err != nil {
		slog.Error("failed to configure token signing", "error", err)
		os.Exit(1)
	}

	userRepo := auth.NewUserRepository(db.Pool())
	authService := auth.NewService(userRepo, tokens, cfg.BcryptCost)

	inst := installer.New(cfg.NpmRegistry, cfg.NpmCacheDir, time.Duration(cfg.InstallTimeoutSecs)*time.Second)

	router := api.NewRouter(api.RouterDeps{
		AuthService: authService,
		UserRepo:    userRepo,
		KeyRepo:     apikey.NewRepository(db.Pool()),
		PackageRepo: npmpkg.NewRepository(db.Pool()),
		Installer:   inst,
		SyncInstall: cfg.SyncInstall,
		DBPinger:    db,
		Version:     cfg.Version,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting MCP key server", "addr", srv.Addr, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string, debug bool) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	if debug {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
