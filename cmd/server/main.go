package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/acp-checkout/internal/adapter/handler"
	"github.com/rl1809/acp-checkout/internal/adapter/payment"
	"github.com/rl1809/acp-checkout/internal/adapter/storage"
	"github.com/rl1809/acp-checkout/internal/catalog"
	"github.com/rl1809/acp-checkout/internal/config"
	"github.com/rl1809/acp-checkout/internal/core/service"
	"github.com/rl1809/acp-checkout/internal/logger"
	"github.com/rl1809/acp-checkout/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog
	products := catalog.Default()
	if cfg.CatalogPath != "" {
		products, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			log.Fatal("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		}
	}
	log.Info("catalog loaded", "products", len(products.Products()))

	// Storage
	sessions, locker, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	// Payment
	var gateway port.PaymentGateway
	switch cfg.PaymentProvider {
	case config.PaymentStripe:
		gateway = payment.NewStripeGateway(payment.StripeConfig{
			BaseURL: cfg.StripeBaseURL,
			APIKey:  cfg.StripeAPIKey,
			Version: cfg.StripeVersion,
			Timeout: cfg.PaymentTimeout,
		}, log.With("component", "stripe"))
	default:
		gateway = payment.NewSimulatedGateway()
	}
	log.Info("payment gateway ready", "provider", cfg.PaymentProvider)

	checkoutService := service.NewCheckoutService(sessions, locker, products, products, gateway,
		service.WithLogger(log.With("component", "checkout")))

	// gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterCheckoutServiceServer(grpcServer, handler.NewGRPCHandler(checkoutService, log))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal("failed to listen", "addr", cfg.GRPCAddr, "error", err)
	}

	go func() {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", "error", err)
		}
	}()

	// HTTP server
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.NewHTTPHandler(checkoutService, log).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.PaymentTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", "error", err)
	}
	log.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")
}

// openStore builds the session repository and locker for the configured
// backend. The returned func closes any connections it opened.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (port.SessionRepository, port.SessionLocker, func()) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect redis", "addr", cfg.RedisAddr, "error", err)
		}
		log.Info("connected to redis", "addr", cfg.RedisAddr)

		adapter := storage.NewRedisAdapter(rdb, cfg.SessionTTL, cfg.LockTTL)
		return adapter, adapter, func() { _ = rdb.Close() }

	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal("failed to open mysql", "error", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping mysql", "error", err)
		}
		log.Info("connected to mysql")

		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			log.Fatal("failed to create schema", "error", err)
		}
		return adapter, storage.NewMySQLLocker(db), func() { _ = db.Close() }

	default:
		log.Info("using in-memory session store")
		return storage.NewMemoryRepository(), storage.NewMemoryLocker(), func() {}
	}
}
