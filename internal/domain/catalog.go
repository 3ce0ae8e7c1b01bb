package domain

import "time"

// Catalog is an immutable snapshot of all pricing reference data. It is
// replaced wholesale on refresh and never mutated after construction.
type Catalog struct {
	Version  int64
	LoadedAt time.Time
	Tariffs  []TariffRecord
	Rules    map[RouteKey]FeeRule
	Fees     ServiceFeeCatalog
}

func NewCatalog(at time.Time, tariffs []TariffRecord, rules []FeeRule, fees ServiceFeeCatalog) *Catalog {
	byKey := make(map[RouteKey]FeeRule, len(rules))
	for _, r := range rules {
		byKey[r.Key()] = r
	}
	if fees == nil {
		fees = ServiceFeeCatalog{}
	}
	return &Catalog{
		Version:  at.UnixNano(),
		LoadedAt: at,
		Tariffs:  tariffs,
		Rules:    byKey,
		Fees:     fees,
	}
}

func (c *Catalog) Rule(origin, destination string) (FeeRule, bool) {
	r, ok := c.Rules[RouteKey{Origin: origin, Destination: destination}]
	return r, ok
}

// CatalogRefreshed announces that new reference data has been written.
type CatalogRefreshed struct {
	Tariffs     int       `json:"tariffs"`
	ServiceFees int       `json:"serviceFees"`
	FeeRules    int       `json:"feeRules"`
	Rejected    int       `json:"rejected"`
	At          time.Time `json:"at"`
}
