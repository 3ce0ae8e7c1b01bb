package domain

import "fmt"

// GroupComposition is the raw traveller group as supplied by the caller.
type GroupComposition struct {
	Adults    int
	ChildAges []int
}

func (g GroupComposition) Validate() error {
	if g.Adults < 0 {
		return fmt.Errorf("%w: adults must be non-negative", ErrInvalidInput)
	}
	for i, age := range g.ChildAges {
		if age < 0 {
			return fmt.Errorf("%w: child age #%d is negative", ErrInvalidInput, i+1)
		}
	}
	return nil
}

type ResolvedComposition struct {
	EffectiveAdults  int
	DiscountChildren int
	// Age of the first 3..12 child; only consulted when DiscountChildren == 1.
	SingleDiscountChildAge *int
}

// RoomAllocation is the planned room mix. ChildSurcharge marks that a 3..12
// child shares a double room and doubles are priced 25% higher.
type RoomAllocation struct {
	Single         int  `json:"single"`
	Double         int  `json:"double"`
	Triple         int  `json:"triple"`
	ChildSurcharge bool `json:"childSurcharge"`
}

func (a RoomAllocation) Count(rt RoomType) int {
	switch rt {
	case RoomSingle:
		return a.Single
	case RoomDouble:
		return a.Double
	case RoomTriple:
		return a.Triple
	}
	return 0
}

func (a RoomAllocation) Rooms() int { return a.Single + a.Double + a.Triple }

// Beds is the number of full-rate places the allocation provides.
func (a RoomAllocation) Beds() int { return a.Single + 2*a.Double + 3*a.Triple }
