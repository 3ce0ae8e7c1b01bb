package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"safari_quote/internal/domain"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	AMQPURL     string
	CacheTTL    time.Duration
	CORSOrigins []string

	// Reference data sources: file paths or http(s) URLs.
	TariffsSrc     string
	ServiceFeesSrc string
	FeeRulesSrc    string
	SourceRPS      float64
	Workers        int
	CatalogYear    int

	// FeeZeroOnEvalError prices a leg at 0 instead of failing the itinerary
	// when its formula cannot be evaluated.
	FeeZeroOnEvalError bool
	Incidentals        domain.IncidentalTariff
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real env vars take precedence.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	atof := func(k string, def float64) float64 {
		if v := os.Getenv(k); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		}
		return def
	}
	money := func(k string, def int64) decimal.Decimal {
		if v := os.Getenv(k); v != "" {
			if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return d
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not a decimal, using default")
		}
		return decimal.NewFromInt(def)
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/safari?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		AMQPURL:     env("AMQP_URL", ""),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		CORSOrigins: list(env("CORS_ORIGINS", "*")),

		TariffsSrc:     env("TARIFFS_SRC", "data/tariffs.csv"),
		ServiceFeesSrc: env("SERVICE_FEES_SRC", "data/service_fees.csv"),
		FeeRulesSrc:    env("FEE_RULES_SRC", "data/fee_rules.json"),
		SourceRPS:      atof("SOURCE_RPS", 5),
		Workers:        atoi("INGEST_WORKERS", 3),
		CatalogYear:    atoi("CATALOG_YEAR", time.Now().Year()),

		FeeZeroOnEvalError: envBool("FEE_ZERO_ON_EVAL_ERROR", false),
		Incidentals: domain.IncidentalTariff{
			Lunch:   money("LUNCH_FEE", 10),
			Water:   money("WATER_FEE", 1),
			Service: money("SERVICE_FEE", 70),
		},
	}
	if c.AMQPURL == "" {
		log.Warn().Msg("AMQP_URL is empty; catalog refresh events disabled")
	}
	if c.FeeZeroOnEvalError {
		log.Warn().Msg("FEE_ZERO_ON_EVAL_ERROR enabled; broken formulas price legs at 0")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
