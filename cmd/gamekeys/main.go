package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/gamekeys/internal/cache"
	"github.com/nikolayk812/gamekeys/internal/config"
	gkhttp "github.com/nikolayk812/gamekeys/internal/http"
	"github.com/nikolayk812/gamekeys/internal/keygen"
	"github.com/nikolayk812/gamekeys/internal/logging"
	"github.com/nikolayk812/gamekeys/internal/metrics"
	"github.com/nikolayk812/gamekeys/internal/migrations"
	"github.com/nikolayk812/gamekeys/internal/outbox"
	"github.com/nikolayk812/gamekeys/internal/port"
	"github.com/nikolayk812/gamekeys/internal/repository"
	"github.com/nikolayk812/gamekeys/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const outboxMaxRetries = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	if err := run(log, cfg); err != nil {
		log.Error("gamekeys stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := migrations.Up(cfg.PGURL); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	// checkout prices from the database, the cache only serves cart and library lookups
	pricing := repository.NewCatalog(pool)

	var catalog port.TitleCatalog = pricing
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer func() { _ = rdb.Close() }()

		catalog = cache.NewCatalog(log, rdb, catalog, cfg.CatalogCacheTTL)
		log.Info("catalog cache enabled", "addr", cfg.RedisAddr)
	}

	keys := keygen.New(log, keygen.Config{
		MaxAttempts: cfg.KeyMaxAttempts,
		Collisions:  checkoutMetrics.KeyCollisions,
		Exhausted:   checkoutMetrics.KeySpaceExhausted,
	})

	sales := repository.NewSale(pool)
	carts := service.NewCartService(log, repository.NewCart(pool), catalog, cfg.CatalogTimeout)
	checkout := service.NewCheckoutService(log, repository.NewCheckout(pool), sales, pricing, keys, checkoutMetrics, cfg.CatalogTimeout)
	library := service.NewLibraryService(log, sales, catalog, cfg.CatalogTimeout)

	if len(cfg.KafkaBrokers) > 0 {
		writer := outbox.NewWriter(cfg.KafkaBrokers)
		defer func() { _ = writer.Close() }()

		dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
		relay := outbox.NewRelay(log, repository.NewOutbox(pool, outboxMaxRetries), dispatch, "gamekeys-relay")

		// joined before the writer and pool are closed
		wait := relay.Start(ctx)
		defer wait()
	}

	handler := gkhttp.NewHandler(log, carts, checkout, library)
	router := gkhttp.NewRouter(log, handler, gkhttp.RouterConfig{
		Auth:           gkhttp.NewStaticAuthenticator(cfg.AuthTokens, cfg.AuthTrustedHeader),
		Metrics:        serverMetrics,
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("gamekeys shutdown complete")
	return nil
}
