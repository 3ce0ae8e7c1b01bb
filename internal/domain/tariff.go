package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomType string

const (
	RoomSingle RoomType = "single"
	RoomDouble RoomType = "double"
	RoomTriple RoomType = "triple"
)

// RoomTypes is the fixed output order for quotes.
var RoomTypes = []RoomType{RoomSingle, RoomDouble, RoomTriple}

// SeasonWindow is a month/day interval inside one calendar year. A window
// whose start falls after its end wraps over New Year within that year.
type SeasonWindow struct {
	StartMonth int `json:"startMonth"`
	StartDay   int `json:"startDay"`
	EndMonth   int `json:"endMonth"`
	EndDay     int `json:"endDay"`
	Year       int `json:"year,omitempty"`
}

func WholeYear() SeasonWindow {
	return SeasonWindow{StartMonth: 1, StartDay: 1, EndMonth: 12, EndDay: 31}
}

func (w SeasonWindow) WithYear(year int) SeasonWindow {
	w.Year = year
	return w
}

func (w SeasonWindow) start() int { return w.StartMonth*100 + w.StartDay }
func (w SeasonWindow) end() int   { return w.EndMonth*100 + w.EndDay }

// Wraps reports whether the window spans the year boundary (e.g. Dec - Feb).
func (w SeasonWindow) Wraps() bool { return w.start() > w.end() }

// Contains reports whether date falls inside the window, bounds inclusive.
// The date's year must equal the window's year.
func (w SeasonWindow) Contains(date time.Time) bool {
	if date.Year() != w.Year {
		return false
	}
	md := int(date.Month())*100 + date.Day()
	if w.Wraps() {
		return md >= w.start() || md <= w.end()
	}
	return md >= w.start() && md <= w.end()
}

type Rates struct {
	Single decimal.Decimal `json:"single"`
	Double decimal.Decimal `json:"double"`
	Triple decimal.Decimal `json:"triple"`
}

func (r Rates) For(rt RoomType) decimal.Decimal {
	switch rt {
	case RoomSingle:
		return r.Single
	case RoomDouble:
		return r.Double
	case RoomTriple:
		return r.Triple
	}
	return decimal.Zero
}

// TariffRecord is one seasonal rate line for an accommodation. Tier 1 is the
// highest grade.
type TariffRecord struct {
	AccommodationName string
	Tier              int
	Location          string
	Window            SeasonWindow
	Rates             Rates
	Description       string
}

// HotelQuote is the cheapest eligible rate for one (tier, room type) pair.
type HotelQuote struct {
	Tier              int             `json:"class"`
	AccommodationName string          `json:"hotel"`
	RoomType          RoomType        `json:"roomType"`
	RoomCount         int             `json:"roomCount"`
	BaseRate          decimal.Decimal `json:"baseRate"`
	Surcharge         decimal.Decimal `json:"surcharge"`
	FinalRate         decimal.Decimal `json:"finalRate"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	ChildSurcharge    bool            `json:"childSurcharge"`
	Description       string          `json:"description"`
}

// RateSheetEntry lists one accommodation's rates for a date together with the
// price of the whole allocation at that accommodation.
type RateSheetEntry struct {
	AccommodationName string          `json:"name"`
	Location          string          `json:"location"`
	Tier              int             `json:"class"`
	Rates             Rates           `json:"rates"`
	Surcharge         decimal.Decimal `json:"surcharge"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	ChildSurcharge    bool            `json:"childSurcharge"`
	Description       string          `json:"description"`
}
