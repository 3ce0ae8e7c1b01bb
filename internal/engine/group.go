package engine

import "safari_quote/internal/domain"

const (
	minDiscountAge = 3
	maxDiscountAge = 12
)

// Resolve normalises a raw group. Children over 12 count as adults, children
// aged 3..12 are discount-eligible and children under 3 are ignored.
func Resolve(g domain.GroupComposition) domain.ResolvedComposition {
	r := domain.ResolvedComposition{EffectiveAdults: max(g.Adults, 0)}
	for _, age := range g.ChildAges {
		switch {
		case age > maxDiscountAge:
			r.EffectiveAdults++
		case age >= minDiscountAge:
			r.DiscountChildren++
			if r.SingleDiscountChildAge == nil {
				a := age
				r.SingleDiscountChildAge = &a
			}
		}
	}
	return r
}

// Plan maps a resolved group onto single/double/triple rooms.
//
// A single 3..12 child with an even number of adults shares a double room
// and sets ChildSurcharge. With an odd number of adults the child takes a
// full place. Groups with no such child or with several of them are sized
// by headcount.
func Plan(r domain.ResolvedComposition) domain.RoomAllocation {
	if r.DiscountChildren != 1 {
		return AllocateGroup(r.EffectiveAdults + r.DiscountChildren)
	}
	switch {
	case r.EffectiveAdults%2 == 1:
		return AllocateGroup(r.EffectiveAdults + 1)
	case r.EffectiveAdults == 0:
		// An unaccompanied child has nobody to share with.
		return AllocateGroup(1)
	default:
		return domain.RoomAllocation{Double: r.EffectiveAdults / 2, ChildSurcharge: true}
	}
}

// AllocateGroup sizes rooms for n full-rate occupants: pairs go into
// doubles and an odd remainder of three goes into one triple.
func AllocateGroup(n int) domain.RoomAllocation {
	switch {
	case n <= 0:
		return domain.RoomAllocation{}
	case n == 1:
		return domain.RoomAllocation{Single: 1}
	case n == 2:
		return domain.RoomAllocation{Double: 1}
	case n == 3:
		return domain.RoomAllocation{Triple: 1}
	case n%2 == 0:
		return domain.RoomAllocation{Double: n / 2}
	default:
		return domain.RoomAllocation{Triple: 1, Double: (n - 3) / 2}
	}
}

// PlanGroup is Resolve followed by Plan.
func PlanGroup(g domain.GroupComposition) (domain.ResolvedComposition, domain.RoomAllocation) {
	r := Resolve(g)
	return r, Plan(r)
}
