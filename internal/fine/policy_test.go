package fine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	// Flat fee: days late do not change the amount.
	assert.True(t, p.Amount(1).Equal(decimal.NewFromFloat(5.00)))
	assert.True(t, p.Amount(30).Equal(decimal.NewFromFloat(5.00)))
}

func TestPolicy_Amount(t *testing.T) {
	p := Policy{
		Base:      decimal.NewFromFloat(2.50),
		DailyRate: decimal.NewFromFloat(0.75),
	}

	assert.True(t, p.Amount(1).Equal(decimal.NewFromFloat(3.25)))
	assert.True(t, p.Amount(4).Equal(decimal.NewFromFloat(5.50)))

	// A late return counts at least one day.
	assert.True(t, p.Amount(0).Equal(decimal.NewFromFloat(3.25)))

	// Amounts are always positive when the base is.
	assert.True(t, p.Amount(1).IsPositive())
}

func TestParsePolicy(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := ParsePolicy("3.00", "0.50")
		require.NoError(t, err)
		assert.True(t, p.Base.Equal(decimal.NewFromFloat(3.00)))
		assert.True(t, p.DailyRate.Equal(decimal.NewFromFloat(0.50)))
	})

	t.Run("malformed base", func(t *testing.T) {
		_, err := ParsePolicy("abc", "0")
		assert.Error(t, err)
	})

	t.Run("non-positive base", func(t *testing.T) {
		_, err := ParsePolicy("0", "0.50")
		assert.Error(t, err)
	})

	t.Run("negative rate", func(t *testing.T) {
		_, err := ParsePolicy("5.00", "-1")
		assert.Error(t, err)
	})
}
