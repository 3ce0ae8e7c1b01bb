package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "safari_quote/internal/adapters/amqp"
	server "safari_quote/internal/adapters/http_server"
	"safari_quote/internal/adapters/observability"
	redisad "safari_quote/internal/adapters/redis"
	"safari_quote/internal/app"
	"safari_quote/internal/domain"
	"safari_quote/internal/shared"
	mysqlrepo "safari_quote/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// snapshot
	repo := mysqlrepo.New(db)
	holder := app.NewCatalogHolder(repo)
	if _, err := holder.Reload(ctx); err != nil {
		log.Fatal().Err(err).Msg("initial catalog load failed")
	}

	// cache is optional; quotes are recomputed when redis is down
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, quote cache disabled")
		_ = rc.Close()
	} else {
		defer rc.Close()
		cache = rc
	}

	if cfg.AMQPURL != "" {
		consumer := amqpad.NewConsumer(cfg.AMQPURL, func(ctx context.Context, ev domain.CatalogRefreshed) error {
			log.Info().Time("at", ev.At).Int("tariffs", ev.Tariffs).Msg("catalog refresh received")
			_, err := holder.Reload(ctx)
			return err
		}).OnSubscribe(func(ctx context.Context) error {
			_, err := holder.Reload(ctx)
			return err
		})
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("refresh consumer stopped")
			}
		}()
	}

	q := app.NewQuoteService(holder, cache, cfg.CacheTTL, app.QuoteOptions{
		FeeZeroOnEvalError: cfg.FeeZeroOnEvalError,
		Incidentals:        cfg.Incidentals,
	})

	// http
	srv := server.New(cfg.CORSOrigins)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
