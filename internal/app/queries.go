package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"safari_quote/internal/adapters/observability"
	"safari_quote/internal/domain"
	"safari_quote/internal/engine"
)

// Snapshots hands out the catalog a request should price against.
type Snapshots interface {
	Current() *domain.Catalog
}

type QuoteOptions struct {
	// FeeZeroOnEvalError prices a leg at 0 when its formula fails.
	FeeZeroOnEvalError bool
	Incidentals        domain.IncidentalTariff
}

type QuoteService struct {
	snaps    Snapshots
	cache    domain.Cache
	cacheTTL time.Duration
	opts     QuoteOptions
}

func NewQuoteService(s Snapshots, c domain.Cache, ttl time.Duration, opts QuoteOptions) *QuoteService {
	if opts.Incidentals == (domain.IncidentalTariff{}) {
		opts.Incidentals = engine.DefaultIncidentalTariff()
	}
	return &QuoteService{snaps: s, cache: c, cacheTTL: ttl, opts: opts}
}

// QuoteHotels returns the cheapest rate per tier and room type at location
// on date for the planned allocation of g.
func (s *QuoteService) QuoteHotels(ctx context.Context, location string, date time.Time, g domain.GroupComposition) ([]domain.HotelQuote, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	cat := s.snaps.Current()
	key := quoteKey("hotel", cat.Version, location, date, g)

	var out []domain.HotelQuote
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	_, alloc := engine.PlanGroup(g)
	out = engine.Quote(location, date, cat.Tariffs, alloc)
	if len(out) == 0 {
		observability.ObserveQuote("hotel", "not_found")
		return nil, fmt.Errorf("%w: no tariff at %q on %s", domain.ErrNotFound, location, date.Format(time.DateOnly))
	}
	observability.ObserveQuote("hotel", "ok")
	s.cacheSet(ctx, key, out)
	return out, nil
}

// RateSheet lists every accommodation at location priced for g on date.
func (s *QuoteService) RateSheet(ctx context.Context, location string, date time.Time, g domain.GroupComposition) ([]domain.RateSheetEntry, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	cat := s.snaps.Current()
	key := quoteKey("rates", cat.Version, location, date, g)

	var out []domain.RateSheetEntry
	if s.cacheGet(ctx, key, &out) {
		return out, nil
	}

	_, alloc := engine.PlanGroup(g)
	out = engine.RateSheet(location, date, cat.Tariffs, alloc)
	if len(out) == 0 {
		observability.ObserveQuote("rates", "not_found")
		return nil, fmt.Errorf("%w: no accommodation at %q on %s", domain.ErrNotFound, location, date.Format(time.DateOnly))
	}
	observability.ObserveQuote("rates", "ok")
	s.cacheSet(ctx, key, out)
	return out, nil
}

// LegFee prices one origin/destination leg from its fee rule.
func (s *QuoteService) LegFee(ctx context.Context, from, to string, adults, kids int) (domain.LegFee, error) {
	if adults < 0 || kids < 0 {
		return domain.LegFee{}, fmt.Errorf("%w: traveller counts must be non-negative", domain.ErrInvalidInput)
	}
	cat := s.snaps.Current()
	rule, ok := cat.Rule(from, to)
	if !ok {
		observability.ObserveQuote("fee", "not_found")
		return domain.LegFee{}, fmt.Errorf("%w: no fee rule for %s -> %s", domain.ErrNotFound, from, to)
	}
	fee, err := legFee(rule, cat.Fees, adults, kids)
	if err != nil {
		observability.ObserveQuote("fee", "error")
		return domain.LegFee{}, err
	}
	observability.ObserveQuote("fee", "ok")
	return fee, nil
}

func legFee(rule domain.FeeRule, fees domain.ServiceFeeCatalog, adults, kids int) (domain.LegFee, error) {
	v, err := engine.EvaluateFee(rule.Formula, fees, adults, kids)
	if err != nil {
		return domain.LegFee{}, fmt.Errorf("fee %s -> %s: %w", rule.Origin, rule.Destination, err)
	}
	missing := engine.MissingCodes(rule.Formula, fees)
	if len(missing) > 0 {
		log.Debug().
			Str("from", rule.Origin).
			Str("to", rule.Destination).
			Strs("codes", missing).
			Msg("service codes priced at 0")
	}
	return domain.LegFee{
		Origin:       rule.Origin,
		Destination:  rule.Destination,
		Description:  rule.Description,
		Fee:          v,
		MissingCodes: missing,
	}, nil
}

// QuoteItinerary prices every leg against one snapshot. Legs without a fee
// rule are flagged rather than failing the whole itinerary; lodging is quoted
// where the rule names a lodging location. Totals are left to the caller.
func (s *QuoteService) QuoteItinerary(ctx context.Context, g domain.GroupComposition, legs []domain.Leg) (domain.ItineraryQuote, error) {
	if err := g.Validate(); err != nil {
		return domain.ItineraryQuote{}, err
	}
	if len(legs) == 0 {
		return domain.ItineraryQuote{}, fmt.Errorf("%w: itinerary has no legs", domain.ErrInvalidInput)
	}
	cat := s.snaps.Current()
	_, alloc := engine.PlanGroup(g)
	adults, kids := max(g.Adults, 0), len(g.ChildAges)

	out := domain.ItineraryQuote{Allocation: alloc, Legs: make([]domain.LegQuote, 0, len(legs))}
	for i, leg := range legs {
		lq := domain.LegQuote{Leg: leg}
		rule, ok := cat.Rule(leg.Origin, leg.Destination)
		if !ok {
			lq.RuleMissing = true
			out.Legs = append(out.Legs, lq)
			continue
		}

		fee, err := legFee(rule, cat.Fees, adults, kids)
		switch {
		case err == nil:
			lq.Fee = &fee
		case errors.Is(err, engine.ErrFormula) && s.opts.FeeZeroOnEvalError:
			log.Warn().Err(err).Int("leg", i).Msg("fee formula failed, pricing leg at 0")
			lq.Fee = &domain.LegFee{Origin: rule.Origin, Destination: rule.Destination, Description: rule.Description}
			lq.FeeFallback = true
			observability.ObserveQuote("fee", "fallback")
		default:
			observability.ObserveQuote("itinerary", "error")
			return domain.ItineraryQuote{}, fmt.Errorf("leg %d: %w", i+1, err)
		}

		if rule.LodgingLocation != "" {
			lq.LodgingLocation = rule.LodgingLocation
			lq.Lodging = engine.Quote(rule.LodgingLocation, leg.Date, cat.Tariffs, alloc)
		}
		out.Legs = append(out.Legs, lq)
	}
	observability.ObserveQuote("itinerary", "ok")
	return out, nil
}

// Incidentals prices lunches, water and service for a trip of days days.
func (s *QuoteService) Incidentals(adults, kids, days int) (domain.IncidentalQuote, error) {
	if adults < 0 || kids < 0 || days < 0 {
		return domain.IncidentalQuote{}, fmt.Errorf("%w: counts and duration must be non-negative", domain.ErrInvalidInput)
	}
	return engine.Incidentals(adults, kids, days, s.opts.Incidentals), nil
}

func (s *QuoteService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (s *QuoteService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// quoteKey scopes cached results to one catalog version so a reload never
// serves stale prices.
func quoteKey(kind string, version int64, location string, date time.Time, g domain.GroupComposition) string {
	ages := make([]string, len(g.ChildAges))
	for i, a := range g.ChildAges {
		ages[i] = strconv.Itoa(a)
	}
	return fmt.Sprintf("%s:%d:%s:%s:%d:%s",
		kind, version,
		strings.ToLower(strings.TrimSpace(location)),
		date.Format(time.DateOnly),
		g.Adults, strings.Join(ages, "."))
}
