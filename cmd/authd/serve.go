package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/go-auth-service/docs" // Swagger docs
	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	httpServer "github.com/redmonkez12/go-auth-service/internal/http"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/rpc"
)

// NewServeCmd creates the serve subcommand
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"grpc_port", cfg.Server.GRPCPort,
		"store", cfg.Store.Driver,
		"token_format", cfg.Auth.TokenFormat,
	)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Disconnect(shutdownCtx); err != nil {
			logger.Error("failed to disconnect user store", "error", err)
			return
		}
		logger.Info("disconnected from user store")
	}()

	limiter, releaseLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	defer releaseLimiter()

	tokens, err := newTokenService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	authService, err := auth.NewService(store, tokens, hasher, collector, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth service: %w", err)
	}

	router := httpServer.NewRouter(cfg.Server, httpServer.Deps{
		AuthHandler:    auth.NewHandler(authService, limiter, collector),
		AuthMiddleware: auth.NewMiddleware(tokens),
		Metrics:        metrics.Handler(registry),
		Health:         store.Ping,
		Logger:         logger,
	})
	server := httpServer.NewServer(":"+cfg.Server.Port, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, logger)
	grpcServer := rpc.NewServer(net.JoinHostPort("", cfg.Server.GRPCPort), authService, limiter, collector, logger)

	grpcCtx, stopGRPC := context.WithCancel(context.Background())
	defer stopGRPC()

	serverErrors := make(chan error, 2)
	go func() { serverErrors <- server.Start() }()
	go func() { serverErrors <- grpcServer.Run(grpcCtx) }()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stopGRPC()
	errs := []error{server.Shutdown(shutdownCtx)}
	for range 2 {
		errs = append(errs, <-serverErrors)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
