// cmd/storefront/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wawashop/storefront/internal/config"
	"github.com/wawashop/storefront/internal/domain/cart"
	"github.com/wawashop/storefront/internal/domain/history"
	"github.com/wawashop/storefront/internal/domain/order"
	"github.com/wawashop/storefront/internal/domain/session"
	"github.com/wawashop/storefront/internal/infrastructure/database/postgres"
	"github.com/wawashop/storefront/internal/infrastructure/database/redis"
	"github.com/wawashop/storefront/internal/infrastructure/gateway"
	"github.com/wawashop/storefront/internal/interfaces/http"
	"github.com/wawashop/storefront/internal/interfaces/http/routes"
	"github.com/wawashop/storefront/internal/pkg/auth"
	"github.com/wawashop/storefront/internal/pkg/logger"
	"github.com/wawashop/storefront/internal/pkg/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg)
	logg.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	// Connect to database
	db, err := postgres.NewConnection(cfg, logg)
	if err != nil {
		logg.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg, logg)
	if err != nil {
		logg.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Health check
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.Health(ctx); err != nil {
		logg.WithError(err).Fatal("Database health check failed")
	}
	if err := redisClient.Health(ctx); err != nil {
		logg.WithError(err).Fatal("Redis health check failed")
	}
	cancel()

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), logg)
	if err := migration.RunAutoMigrations(); err != nil {
		logg.WithError(err).Fatal("Database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		logg.WithError(err).Warn("Index creation failed")
	}

	backend := gateway.NewClient(cfg.Gateway, logg)
	tokens := auth.NewJWTManager(cfg)
	sessions := session.NewService(backend, session.NewStore(redisClient, cfg.Redis.SessionTTL), tokens, logg)
	orders := order.NewService(db.GetDB(), backend, logg)

	numbers := cart.NewOrderNumberGenerator(cfg.Cart.OrderNumberPrefix, nil)
	carts := cart.NewRegistry(func(provider cart.SessionProvider) *cart.Store {
		return cart.NewStore(backend, provider,
			cart.WithLogger(logg),
			cart.WithDefaults(cart.Defaults{
				UnitCode:      cfg.Cart.DefaultUnitCode,
				WarehouseCode: cfg.Cart.DefaultWarehouseCode,
				ShelfCode:     cfg.Cart.DefaultShelfCode,
			}),
			cart.WithOrderNumbers(numbers),
			cart.WithOrderRecorder(orders),
			cart.WithClock(time.Now, cfg.Location()),
		)
	})
	// A customer's cart is reloaded after sign-out or a customer switch
	sessions.OnRelease(carts.Forget)

	logg.Info("All systems operational")

	// Create and start HTTP server
	server := http.NewServer(cfg, db, redisClient, routes.Dependencies{
		Sessions: sessions,
		Carts:    carts,
		Orders:   orders,
		Receipts: pdf.NewService(cfg),
		History:  history.NewService(backend, logg),
	}, logg)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logg.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logg.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logg.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	logg.Info("Server shutdown completed")
}
