package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/app/background"
	"github.com/LavaJover/vaultx-rates-service/internal/app/setup"
	"github.com/LavaJover/vaultx-rates-service/internal/config"
	"github.com/LavaJover/vaultx-rates-service/internal/delivery/grpcapi"
	"github.com/LavaJover/vaultx-rates-service/internal/delivery/http/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// Reading config
	cfg := config.MustLoad()

	deps, err := setup.InitializeDependencies(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()
	logger := deps.Logger

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Seed from history, then try a first refresh so the service starts ready
	if err := uc.RateCache.Warm(ctx); err != nil {
		logger.Warn("rate cache warm-up failed", "error", err)
	}
	if _, err := uc.RateCache.Refresh(ctx); err != nil {
		logger.Warn("initial rates refresh failed", "error", err)
	}

	// gRPC
	grpcServer := grpc.NewServer()
	grpcapi.RegisterRateServiceServer(grpcServer, grpcapi.NewRateHandler(uc.RateService))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcapi.SyncHealth(healthServer, uc.RateService)

	lis, err := net.Listen("tcp", cfg.GRPCServer.Addr())
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	// HTTP
	limiter := handlers.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, logger)
	ratesHandler := handlers.NewHTTPRatesHandler(uc.RateService, deps.Metrics, logger)
	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Addr(),
		Handler:      handlers.NewRouter(ratesHandler, promhttp.Handler(), limiter),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	// Background jobs
	tasks := background.NewBackgroundTasks(uc.RateCache, background.Config{
		RefreshInterval:   cfg.Cache.RefreshInterval,
		SnapshotRetention: cfg.Cache.SnapshotRetention,
		EventsTopic:       cfg.KafkaService.Topic,
		EventsGroup:       cfg.KafkaService.GroupID,
	}, logger.With("component", "background"))
	tasks.Limiter = limiter
	tasks.OnRefresh = func() { grpcapi.SyncHealth(healthServer, uc.RateService) }
	if deps.Repositories.SnapshotRepo != nil {
		tasks.Snapshots = deps.Repositories.SnapshotRepo
	}
	if deps.Subscriber != nil {
		tasks.Subscriber = deps.Subscriber
	}
	tasks.StartAll(ctx)

	go func() {
		logger.Info("gRPC server started", "addr", cfg.GRPCServer.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("HTTP server started", "addr", cfg.HTTPServer.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	healthServer.Shutdown()
	grpcServer.GracefulStop()
}
