package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safari_quote/internal/domain"
	"safari_quote/internal/engine"
)

func TestEvaluateFee(t *testing.T) {
	fees := domain.ServiceFeeCatalog{"A1": dec("50"), "PF2": dec("70.8"), "VAT": dec("0.18")}
	tests := []struct {
		name    string
		formula string
		adults  int
		kids    int
		want    string
	}{
		{"codes and counts", "A1 + adults*10 + kids*5", 2, 1, "75.00"},
		{"precedence", "2 + 3 * 4", 0, 0, "14.00"},
		{"parentheses", "(PF2 * adults + 59) * (1 + VAT)", 2, 0, "236.71"},
		{"unary minus", "-A1 + 100", 0, 0, "50.00"},
		{"division rounds", "100 / 3", 0, 0, "33.33"},
		{"missing code is zero", "ZZ9 + A1", 0, 0, "50.00"},
		{"decimal literals", "adults * 12.5 + 0.5", 3, 0, "38.00"},
		{"whitespace free", "A1*kids", 0, 4, "200.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.EvaluateFee(tt.formula, fees, tt.adults, tt.kids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestEvaluateFee_FailsClosed(t *testing.T) {
	for _, formula := range []string{
		"",
		"A1 +",
		"(A1 + 2",
		"A1 + 2)",
		"10 / (kids - kids)",
		"process.exit(1)",
		"A1; drop",
		"2 A1",
		"adults ** 2",
		"1.2.3",
		"Children * 3",
	} {
		t.Run(formula, func(t *testing.T) {
			_, err := engine.EvaluateFee(formula, domain.ServiceFeeCatalog{"A1": dec("1")}, 2, 2)
			require.Error(t, err)
			assert.True(t, errors.Is(err, engine.ErrFormula))
			var ee *engine.EvalError
			assert.True(t, errors.As(err, &ee))
		})
	}
}

func TestEvaluateFee_DeepNestingRejected(t *testing.T) {
	formula := ""
	for i := 0; i < 200; i++ {
		formula += "("
	}
	formula += "1"
	for i := 0; i < 200; i++ {
		formula += ")"
	}
	_, err := engine.EvaluateFee(formula, nil, 0, 0)
	assert.ErrorIs(t, err, engine.ErrFormula)
}

func TestServiceCodes(t *testing.T) {
	assert.Equal(t, []string{"A1", "PF2", "C"}, engine.ServiceCodes("A1 + PF2*adults + A1 + C*kids + 10"))
	assert.Empty(t, engine.ServiceCodes("adults * 10"))
}

func TestMissingCodes(t *testing.T) {
	fees := domain.ServiceFeeCatalog{"A1": dec("1")}
	assert.Equal(t, []string{"B2"}, engine.MissingCodes("A1 + B2", fees))
}
