// Command warden runs the watchdog coordination service: watchdog
// registry, M-of-N authority consensus, emergency monitoring and the
// request router, exposed over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/api"
	"github.com/Mindburn-Labs/warden/pkg/audit"
	"github.com/Mindburn-Labs/warden/pkg/config"
	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
	"github.com/Mindburn-Labs/warden/pkg/identity"
	"github.com/Mindburn-Labs/warden/pkg/limiter"
	"github.com/Mindburn-Labs/warden/pkg/observability"
	"github.com/Mindburn-Labs/warden/pkg/registry"
	"github.com/Mindburn-Labs/warden/pkg/router"
	"github.com/Mindburn-Labs/warden/pkg/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	logger := slog.Default().With("component", "main")

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry.
	obsCfg := observability.DefaultConfig()
	obsCfg.Enabled = cfg.OTLPEndpoint != ""
	if obsCfg.Enabled {
		obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	obs, err := observability.New(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	// Archive store.
	archiver, err := openArchiver(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = archiver.Close() }()

	// Audit trail with JSON-lines mirror on stdout.
	trail := audit.NewStore()
	trail.OnAppend(audit.NewLogger().Handle)

	// Engines.
	reg := registry.New()
	reg.OnEvent(auditRegistryHook(trail, logger))

	eng, err := consensus.NewEngine(reg, profile.ConsensusParameters(), &loggingExecutionSink{
		logger: slog.Default().With("component", "execution-sink"),
	})
	if err != nil {
		return fmt.Errorf("init consensus engine: %w", err)
	}
	eng.OnEvent(auditConsensusHook(trail, logger))
	eng.OnEvent(archiveConsensusHook(archiver, logger))
	eng.OnEvent(obs.ConsensusHook())

	mon := emergency.NewMonitor(reg, &loggingPauseSink{
		logger: slog.Default().With("component", "pause-sink"),
	}, profile.Emergency.Window.Std(), profile.Emergency.PauseThreshold)
	mon.OnEvent(auditEmergencyHook(trail, logger))
	mon.OnEvent(archiveEmergencyHook(archiver, logger))
	mon.OnEvent(obs.EmergencyHook())

	rt, err := router.New(eng, mon, &loggingCollaborator{
		logger: slog.Default().With("component", "collaborator"),
	}, nil)
	if err != nil {
		return fmt.Errorf("init router: %w", err)
	}

	// Identity.
	keySet, err := identity.NewInMemoryKeySet()
	if err != nil {
		return fmt.Errorf("init key set: %w", err)
	}
	tokens := identity.NewTokenManager(keySet)

	// Rate limiting: shared allowance when Redis is configured.
	var lim limiter.Limiter
	policy := limiter.Policy{RPM: profile.Limits.RPM, Burst: profile.Limits.Burst}
	if cfg.RedisAddr != "" {
		lim = limiter.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, 0, policy)
	} else {
		lim = limiter.NewLocalLimiter(policy)
	}

	service := api.NewService(reg, eng, mon, rt)
	handler := service.Handler(tokens, lim,
		api.RequestID,
		api.AccessLog(slog.Default().With("component", "http")),
		obs.Middleware(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("warden listening", "port", cfg.Port, "archive_driver", cfg.ArchiveDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := trail.Verify(); err != nil {
		return fmt.Errorf("audit chain verification on shutdown: %w", err)
	}
	return nil
}

func openArchiver(cfg *config.Config) (store.Archiver, error) {
	switch cfg.ArchiveDriver {
	case "sqlite":
		return store.OpenSQLiteArchiver(cfg.ArchiveDSN)
	case "postgres":
		return store.OpenPostgresArchiver(cfg.ArchiveDSN)
	case "memory":
		return store.NewMemoryArchiver(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
