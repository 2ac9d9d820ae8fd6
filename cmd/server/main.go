package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/OHEUNSOL/secondhand-marketplace/internal/adapter/handler"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/adapter/handler/pb"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/adapter/storage"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/auth"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/config"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/core/service"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/logging"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/metrics"
	"github.com/OHEUNSOL/secondhand-marketplace/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.StdoutLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping mysql: %w", err)
	}
	logger.Info("connected to mysql")

	if cfg.MigrateOnStart {
		if err := storage.Migrate(db); err != nil {
			return err
		}
		logger.Info("schema migrations applied")
	}

	// Redis is optional; without it the idempotency filter is off.
	var cache port.CacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		defer rdb.Close()

		redisAdapter := storage.NewRedisAdapter(rdb)
		if err := redisAdapter.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		cache = redisAdapter
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	} else {
		logger.Warn("redis disabled, idempotency keys are ignored")
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	cartService := service.NewCartService(mysqlAdapter)
	checkoutService := service.NewCheckoutService(mysqlAdapter, cache, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "marketplace"),
	)
	srvMetrics := metrics.NewServerMetrics(registry)
	tokenParser := auth.NewJWTTokenParser(cfg.JWTSecret)

	// HTTP
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(srvMetrics.Middleware)
	router.Handle("/metrics", metrics.Handler(registry))

	httpHandler := handler.NewHTTPHandler(cartService, checkoutService, srvMetrics, logger)
	httpHandler.Routes(router, tokenParser)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// gRPC
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.AuthUnaryInterceptor(tokenParser)))
	pb.RegisterCheckoutServiceServer(grpcServer, handler.NewGRPCHandler(checkoutService, srvMetrics, logger))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := httpServer.Shutdown(shutdownCtx)
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		return err
	})

	return group.Wait()
}
