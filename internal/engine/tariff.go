package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"safari_quote/internal/domain"
)

// ChildSurchargeRate is added on top of a double room's rate when a 3..12
// child shares it.
var ChildSurchargeRate = decimal.RequireFromString("0.25")

type quoteKey struct {
	tier int
	room domain.RoomType
}

func sameLocation(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func roomRank(rt domain.RoomType) int {
	for i, r := range domain.RoomTypes {
		if r == rt {
			return i
		}
	}
	return len(domain.RoomTypes)
}

func childSurcharge(alloc domain.RoomAllocation, rt domain.RoomType, base decimal.Decimal) decimal.Decimal {
	if alloc.ChildSurcharge && rt == domain.RoomDouble {
		return base.Mul(ChildSurchargeRate)
	}
	return decimal.Zero
}

// Quote returns, for every tier at location and every room type the
// allocation needs, the tariff with the lowest final rate on date. Records
// whose rate for a room type is not positive do not offer that type. On a
// tie the earlier record wins. Results are ordered by room type, then tier.
func Quote(location string, date time.Time, records []domain.TariffRecord, alloc domain.RoomAllocation) []domain.HotelQuote {
	if alloc.Rooms() == 0 {
		return nil
	}

	best := map[quoteKey]domain.HotelQuote{}
	for _, rec := range records {
		if !sameLocation(rec.Location, location) || !rec.Window.Contains(date) {
			continue
		}
		for _, rt := range domain.RoomTypes {
			n := alloc.Count(rt)
			if n == 0 {
				continue
			}
			base := rec.Rates.For(rt)
			if !base.IsPositive() {
				continue
			}
			surcharge := childSurcharge(alloc, rt, base)
			final := base.Add(surcharge)

			k := quoteKey{tier: rec.Tier, room: rt}
			if cur, ok := best[k]; ok && !final.LessThan(cur.FinalRate) {
				continue
			}
			best[k] = domain.HotelQuote{
				Tier:              rec.Tier,
				AccommodationName: rec.AccommodationName,
				RoomType:          rt,
				RoomCount:         n,
				BaseRate:          base,
				Surcharge:         surcharge,
				FinalRate:         final,
				TotalPrice:        final.Mul(decimal.NewFromInt(int64(n))),
				ChildSurcharge:    surcharge.IsPositive(),
				Description:       rec.Description,
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	out := make([]domain.HotelQuote, 0, len(best))
	for _, q := range best {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := roomRank(out[i].RoomType), roomRank(out[j].RoomType)
		if ri != rj {
			return ri < rj
		}
		return out[i].Tier < out[j].Tier
	})
	return out
}

const defaultRateDescription = "Standard rate"

// RateSheet lists every accommodation at location with a season covering
// date, using the first matching tariff of each, and prices the whole
// allocation there. Ordered by tier, then name.
func RateSheet(location string, date time.Time, records []domain.TariffRecord, alloc domain.RoomAllocation) []domain.RateSheetEntry {
	type accKey struct {
		name string
		tier int
	}
	seen := map[accKey]bool{}
	var out []domain.RateSheetEntry
	for _, rec := range records {
		if !sameLocation(rec.Location, location) || !rec.Window.Contains(date) {
			continue
		}
		k := accKey{name: rec.AccommodationName, tier: rec.Tier}
		if seen[k] {
			continue
		}
		seen[k] = true

		rates := rec.Rates
		perRoom := decimal.Zero
		if rates.Double.IsPositive() {
			perRoom = childSurcharge(alloc, domain.RoomDouble, rates.Double)
			rates.Double = rates.Double.Add(perRoom)
		}
		total := decimal.Zero
		for _, rt := range domain.RoomTypes {
			total = total.Add(rates.For(rt).Mul(decimal.NewFromInt(int64(alloc.Count(rt)))))
		}
		desc := rec.Description
		if strings.TrimSpace(desc) == "" {
			desc = defaultRateDescription
		}
		out = append(out, domain.RateSheetEntry{
			AccommodationName: rec.AccommodationName,
			Location:          rec.Location,
			Tier:              rec.Tier,
			Rates:             rates,
			Surcharge:         perRoom.Mul(decimal.NewFromInt(int64(alloc.Double))),
			TotalPrice:        total,
			ChildSurcharge:    alloc.ChildSurcharge && alloc.Double > 0,
			Description:       desc,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].AccommodationName < out[j].AccommodationName
	})
	return out
}
