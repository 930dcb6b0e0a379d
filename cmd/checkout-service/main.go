package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	catalogapp "github.com/sajidhasan/bike-store-checkout/internal/catalog/application"
	cataloghttp "github.com/sajidhasan/bike-store-checkout/internal/catalog/infrastructure/http"
	catalogpg "github.com/sajidhasan/bike-store-checkout/internal/catalog/infrastructure/postgres"
	"github.com/sajidhasan/bike-store-checkout/internal/config"
	orderapp "github.com/sajidhasan/bike-store-checkout/internal/order/application"
	orderhttp "github.com/sajidhasan/bike-store-checkout/internal/order/infrastructure/http"
	orderkafka "github.com/sajidhasan/bike-store-checkout/internal/order/infrastructure/kafka"
	orderpg "github.com/sajidhasan/bike-store-checkout/internal/order/infrastructure/postgres"
	"github.com/sajidhasan/bike-store-checkout/internal/payment/sslcommerz"
	userpg "github.com/sajidhasan/bike-store-checkout/internal/user/infrastructure/postgres"
	"github.com/sajidhasan/bike-store-checkout/pkg/idempotency"
	"github.com/sajidhasan/bike-store-checkout/pkg/logging"
	"github.com/sajidhasan/bike-store-checkout/pkg/metrics"
	"github.com/sajidhasan/bike-store-checkout/pkg/outbox"
	"github.com/sajidhasan/bike-store-checkout/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.ServiceName, slog.LevelInfo)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Error("pg ping failed", "err", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	guard := idempotency.NewStore(rdb, 48*time.Hour)

	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	m := metrics.New("api")

	// Repositories
	orderRepo := orderpg.NewRepository(log, pool)
	catalogRepo := catalogpg.NewRepository(log, pool)
	userRepo := userpg.NewRepository(pool)

	// Outbox relay
	store := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, store, dispatch, cfg.ServiceName+"-relay")

	// Payment gateway adapter
	gw := sslcommerz.New(sslcommerz.Config{
		BaseURL:   cfg.GatewayBaseURL,
		StoreID:   cfg.GatewayStoreID,
		StorePass: cfg.GatewayStorePass,
		Timeout:   cfg.GatewayTimeout,
	})

	// Services
	orderSvc := orderapp.NewService(log, orderapp.Config{
		Currency:        cfg.Currency,
		CallbackBaseURL: cfg.CallbackBaseURL,
	}, orderRepo, catalogRepo, userRepo, gw, guard)
	catalogSvc := catalogapp.NewService(log, catalogRepo)

	// HTTP
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/api", orderhttp.NewHandler(log, orderSvc, m).Routes())
	r.Mount("/api/catalog", cataloghttp.NewHandler(log, catalogSvc).Routes())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("service exited with error", "err", err)
		os.Exit(1)
	}
	log.Info("checkout-service shutdown complete")
}
