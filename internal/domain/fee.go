package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RouteKey struct{ Origin, Destination string }

// FeeRule is the formula-template price of one origin/destination leg.
// LodgingLocation, when set, names where travellers sleep after the leg.
type FeeRule struct {
	Origin          string `json:"from"`
	Destination     string `json:"to"`
	Formula         string `json:"formula"`
	Description     string `json:"description"`
	LodgingLocation string `json:"hotelLocation,omitempty"`
}

func (r FeeRule) Key() RouteKey { return RouteKey{Origin: r.Origin, Destination: r.Destination} }

type ServiceFee struct {
	Code        string
	Description string
	Fee         decimal.Decimal
}

// ServiceFeeCatalog maps a service code to its fee.
type ServiceFeeCatalog map[string]decimal.Decimal

type Leg struct {
	Origin      string    `json:"from"`
	Destination string    `json:"to"`
	Date        time.Time `json:"date"`
}

type LegFee struct {
	Origin      string          `json:"from"`
	Destination string          `json:"to"`
	Description string          `json:"description"`
	Fee         decimal.Decimal `json:"fee"`
	// Codes referenced by the formula but absent from the catalog (priced 0).
	MissingCodes []string `json:"missingCodes,omitempty"`
}

type LegQuote struct {
	Leg             Leg          `json:"leg"`
	Fee             *LegFee      `json:"fee,omitempty"`
	RuleMissing     bool         `json:"ruleMissing,omitempty"`
	FeeFallback     bool         `json:"feeFallback,omitempty"`
	LodgingLocation string       `json:"lodgingLocation,omitempty"`
	Lodging         []HotelQuote `json:"lodging,omitempty"`
}

type ItineraryQuote struct {
	Allocation RoomAllocation `json:"allocation"`
	Legs       []LegQuote     `json:"legs"`
}

// IncidentalTariff holds the flat per-head prices for meals, water and
// guiding.
type IncidentalTariff struct {
	Lunch   decimal.Decimal
	Water   decimal.Decimal
	Service decimal.Decimal
}

type IncidentalQuote struct {
	Lunch   decimal.Decimal `json:"lunch"`
	Water   decimal.Decimal `json:"water"`
	Service decimal.Decimal `json:"service"`
	Total   decimal.Decimal `json:"miscPrice"`
}
