package domain

import (
	"context"
	"io"
)

type CatalogRepository interface {
	// Write paths
	ReplaceTariffs(ctx context.Context, ts []TariffRecord) error
	UpsertServiceFees(ctx context.Context, fs []ServiceFee) error
	ReplaceFeeRules(ctx context.Context, rs []FeeRule) error
	LogReject(ctx context.Context, source string, line int, reason string) error

	// Read paths
	ListTariffs(ctx context.Context) ([]TariffRecord, error)
	ListServiceFees(ctx context.Context) (ServiceFeeCatalog, error)
	ListFeeRules(ctx context.Context) ([]FeeRule, error)
}

// CatalogSource opens a reference-data document (file path or URL).
type CatalogSource interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type RefreshNotifier interface {
	NotifyRefreshed(ctx context.Context, ev CatalogRefreshed) error
}
