package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	amqpad "safari_quote/internal/adapters/amqp"
	"safari_quote/internal/adapters/catalogsrc"
	"safari_quote/internal/adapters/observability"
	"safari_quote/internal/app"
	"safari_quote/internal/domain"
	"safari_quote/internal/shared"
	mysqlrepo "safari_quote/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("tariffs", cfg.TariffsSrc).
		Str("service_fees", cfg.ServiceFeesSrc).
		Str("fee_rules", cfg.FeeRulesSrc).
		Int("workers", cfg.Workers).
		Int("year", cfg.CatalogYear).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	var notifier domain.RefreshNotifier
	if cfg.AMQPURL != "" {
		notifier = amqpad.NewPublisher(cfg.AMQPURL)
	}

	ing := app.NewIngestionService(catalogsrc.New(cfg.SourceRPS), mysqlrepo.New(db), notifier, cfg.Workers, cfg.CatalogYear)
	ev, err := ing.Run(ctx, app.Sources{
		Tariffs:     cfg.TariffsSrc,
		ServiceFees: cfg.ServiceFeesSrc,
		FeeRules:    cfg.FeeRulesSrc,
	})
	if err != nil {
		log.Fatal().Err(err).Int("rejected", ev.Rejected).Msg("ingestion failed")
	}
	log.Info().
		Int("tariffs", ev.Tariffs).
		Int("service_fees", ev.ServiceFees).
		Int("fee_rules", ev.FeeRules).
		Int("rejected", ev.Rejected).
		Msg("ingestion completed")
}
