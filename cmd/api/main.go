package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charterdesk/internal/cache"
	"charterdesk/internal/config"
	"charterdesk/internal/database"
	"charterdesk/internal/events"
	"charterdesk/internal/modules/reservation"
	jwtsvc "charterdesk/internal/pkg/jwt"
	"charterdesk/internal/pkg/logger"
	"charterdesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sugar, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()
	zap.ReplaceGlobals(sugar.Desugar())

	db, err := database.Connect(cfg.DatabaseURL, sugar)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			sugar.Fatalw("migration failed", "error", err)
		}
	}

	var reservationCache reservation.ReservationCache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			sugar.Warnw("redis unavailable, reservation cache disabled", "error", err)
		} else {
			defer client.Close()
			reservationCache = cache.NewReservationCache(client, cfg.CacheTTL)
		}
	}

	var publisher reservation.EventPublisher
	if cfg.RabbitMQURL != "" {
		p, err := events.NewPublisher(cfg.RabbitMQURL, cfg.EventsExchange, sugar)
		if err != nil {
			sugar.Warnw("rabbitmq unavailable, reservation events disabled", "error", err)
		} else {
			defer p.Close()
			publisher = p
		}
	}

	reservationRepo := repository.NewReservationRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	reservationService := reservation.NewService(
		reservationRepo,
		catalogRepo,
		reservationCache,
		publisher,
		reservation.Config{
			Location:        cfg.Location,
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		},
		sugar,
	)
	reservationHandler := reservation.NewHandler(reservationService, sugar)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTokenTTL)

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(reservationHandler, j, cfg.CORSOrigins, sugar)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv, "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	sugar.Info("server stopped")
}
