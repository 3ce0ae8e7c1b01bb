package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safari_quote/internal/domain"
	"safari_quote/internal/engine"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		group        domain.GroupComposition
		wantAdults   int
		wantChildren int
		wantAge      *int
	}{
		{"adults only", domain.GroupComposition{Adults: 4}, 4, 0, nil},
		{"teenager folds into adults", domain.GroupComposition{Adults: 2, ChildAges: []int{13}}, 3, 0, nil},
		{"infants dropped", domain.GroupComposition{Adults: 2, ChildAges: []int{0, 2}}, 2, 0, nil},
		{"boundaries are eligible", domain.GroupComposition{Adults: 1, ChildAges: []int{3, 12}}, 1, 2, intp(3)},
		{"first eligible age kept", domain.GroupComposition{Adults: 2, ChildAges: []int{1, 9, 5, 14}}, 3, 2, intp(9)},
		{"negative adults clamp", domain.GroupComposition{Adults: -3, ChildAges: []int{7}}, 0, 1, intp(7)},
		{"empty", domain.GroupComposition{}, 0, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Resolve(tt.group)
			assert.Equal(t, tt.wantAdults, got.EffectiveAdults)
			assert.Equal(t, tt.wantChildren, got.DiscountChildren)
			assert.Equal(t, tt.wantAge, got.SingleDiscountChildAge)
		})
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		group domain.GroupComposition
		want  domain.RoomAllocation
	}{
		{"solo", domain.GroupComposition{Adults: 1}, domain.RoomAllocation{Single: 1}},
		{"couple", domain.GroupComposition{Adults: 2}, domain.RoomAllocation{Double: 1}},
		{"three", domain.GroupComposition{Adults: 3}, domain.RoomAllocation{Triple: 1}},
		{"five adults", domain.GroupComposition{Adults: 5}, domain.RoomAllocation{Triple: 1, Double: 1}},
		{"six adults", domain.GroupComposition{Adults: 6}, domain.RoomAllocation{Double: 3}},
		{"nobody", domain.GroupComposition{}, domain.RoomAllocation{}},
		{"only infants", domain.GroupComposition{ChildAges: []int{1}}, domain.RoomAllocation{}},
		{
			"two adults and one child share a double",
			domain.GroupComposition{Adults: 2, ChildAges: []int{7}},
			domain.RoomAllocation{Double: 1, ChildSurcharge: true},
		},
		{
			"four adults and one child",
			domain.GroupComposition{Adults: 4, ChildAges: []int{10}},
			domain.RoomAllocation{Double: 2, ChildSurcharge: true},
		},
		{
			"odd adults take the child as a full occupant",
			domain.GroupComposition{Adults: 1, ChildAges: []int{6}},
			domain.RoomAllocation{Double: 1},
		},
		{
			"three adults and one child",
			domain.GroupComposition{Adults: 3, ChildAges: []int{6}},
			domain.RoomAllocation{Double: 2},
		},
		{
			"two eligible children count as full occupants",
			domain.GroupComposition{Adults: 3, ChildAges: []int{5, 8}},
			domain.RoomAllocation{Triple: 1, Double: 1},
		},
		{
			"teenager makes adults odd",
			domain.GroupComposition{Adults: 2, ChildAges: []int{15, 4}},
			domain.RoomAllocation{Double: 2},
		},
		{
			"lone child gets a single",
			domain.GroupComposition{ChildAges: []int{8}},
			domain.RoomAllocation{Single: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := engine.PlanGroup(tt.group)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_Properties(t *testing.T) {
	for adults := 0; adults <= 40; adults++ {
		r := engine.Resolve(domain.GroupComposition{Adults: adults})
		got := engine.Plan(r)
		require.Equal(t, got, engine.Plan(r), "deterministic for %d", adults)

		assert.GreaterOrEqual(t, got.Rooms(), (adults+2)/3, "room floor for %d", adults)
		assert.Contains(t, []int{0, 1}, got.Single)
		if got.Single == 1 {
			assert.Equal(t, 1, adults)
		}
		assert.Equal(t, adults, got.Beds(), "every adult gets a place for %d", adults)
		assert.False(t, got.ChildSurcharge)
	}
}

func TestPlan_SurchargeImpliesDouble(t *testing.T) {
	for adults := 0; adults <= 20; adults++ {
		got := engine.Plan(engine.Resolve(domain.GroupComposition{Adults: adults, ChildAges: []int{5}}))
		if got.ChildSurcharge {
			assert.Positive(t, got.Double, "adults=%d", adults)
		}
		assert.GreaterOrEqual(t, got.Single, 0)
		assert.GreaterOrEqual(t, got.Double, 0)
		assert.GreaterOrEqual(t, got.Triple, 0)
	}
}

func intp(v int) *int { return &v }
