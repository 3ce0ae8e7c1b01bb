package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"safari_quote/internal/adapters/observability"
	"safari_quote/internal/domain"
)

// CatalogHolder serves the current reference-data snapshot. Readers take the
// pointer once per request; Reload swaps in a fully built replacement.
type CatalogHolder struct {
	repo domain.CatalogRepository
	cur  atomic.Pointer[domain.Catalog]
	now  func() time.Time
}

func NewCatalogHolder(r domain.CatalogRepository) *CatalogHolder {
	h := &CatalogHolder{repo: r, now: time.Now}
	h.cur.Store(domain.NewCatalog(time.Unix(0, 0), nil, nil, nil))
	return h
}

func (h *CatalogHolder) Current() *domain.Catalog { return h.cur.Load() }

// Reload reads tariffs, fee rules and service fees concurrently. On any
// failure the previous snapshot stays in place.
func (h *CatalogHolder) Reload(ctx context.Context) (*domain.Catalog, error) {
	var (
		tariffs []domain.TariffRecord
		rules   []domain.FeeRule
		fees    domain.ServiceFeeCatalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tariffs, err = h.repo.ListTariffs(gctx)
		return wrap("tariffs", err)
	})
	g.Go(func() (err error) {
		rules, err = h.repo.ListFeeRules(gctx)
		return wrap("fee rules", err)
	})
	g.Go(func() (err error) {
		fees, err = h.repo.ListServiceFees(gctx)
		return wrap("service fees", err)
	})
	if err := g.Wait(); err != nil {
		observability.ObserveCatalogFailure()
		return nil, err
	}

	c := domain.NewCatalog(h.now(), tariffs, rules, fees)
	h.cur.Store(c)
	observability.ObserveCatalog(len(c.Tariffs), len(c.Rules), len(c.Fees))
	log.Info().
		Int64("version", c.Version).
		Int("tariffs", len(c.Tariffs)).
		Int("rules", len(c.Rules)).
		Int("fees", len(c.Fees)).
		Msg("catalog reloaded")
	return c, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load %s: %w", what, err)
}
