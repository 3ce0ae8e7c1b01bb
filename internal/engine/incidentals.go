package engine

import (
	"github.com/shopspring/decimal"

	"safari_quote/internal/domain"
)

func DefaultIncidentalTariff() domain.IncidentalTariff {
	return domain.IncidentalTariff{
		Lunch:   decimal.NewFromInt(10),
		Water:   decimal.NewFromInt(1),
		Service: decimal.NewFromInt(70),
	}
}

// Incidentals prices packed lunches (once per trip), drinking water (per
// day) and the per-traveller service charge. Lunch and water also cover
// the guide.
func Incidentals(adults, kids, days int, t domain.IncidentalTariff) domain.IncidentalQuote {
	travellers := decimal.NewFromInt(int64(max(adults, 0) + max(kids, 0)))
	withGuide := travellers.Add(decimal.NewFromInt(1))

	q := domain.IncidentalQuote{
		Lunch:   t.Lunch.Mul(withGuide),
		Water:   t.Water.Mul(withGuide).Mul(decimal.NewFromInt(int64(max(days, 0)))),
		Service: t.Service.Mul(travellers),
	}
	q.Total = q.Lunch.Add(q.Water).Add(q.Service)
	return q
}
