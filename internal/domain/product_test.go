package domain

import (
	"math"
	"testing"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampStock(t *testing.T) {
	cases := map[string]int64{
		"30":   30,
		"-5":   0,
		"7.9":  7,
		"0.4":  0,
		"-0.1": 0,
		"0":    0,

		"9223372036854775807":    math.MaxInt64,
		"9223372036854775807.9":  math.MaxInt64,
		"10000000000000000000":   math.MaxInt64,
		"18446744073709551615.5": math.MaxInt64,
		"1e30":                   math.MaxInt64,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ClampStock(decimal.RequireFromString(in)))
		})
	}
}

func TestNewProductClampsStock(t *testing.T) {
	p := NewProduct("b1", "A1", "Yerba", decimal.NewFromInt(100), -3)
	assert.Equal(t, int64(0), p.Stock)
}

func TestNormalizeBaseFields(t *testing.T) {
	name, price, err := NormalizeBaseFields("  Yerba 1kg ", decimal.RequireFromString("120.50"))
	require.NoError(t, err)
	assert.Equal(t, "Yerba 1kg", name)
	assert.True(t, price.Equal(decimal.RequireFromString("120.5")))

	_, _, err = NormalizeBaseFields("   ", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, e.ErrProductNameRequired)
	assert.ErrorIs(t, err, e.ErrValidation)

	_, _, err = NormalizeBaseFields("Yerba", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, e.ErrInvalidPrice)

	_, price, err = NormalizeBaseFields("Yerba", decimal.RequireFromString("1.005"))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("1.01")), price.String())

	_, price, err = NormalizeBaseFields("Yerba", decimal.RequireFromString("1.500"))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("1.5")))

	_, price, err = NormalizeBaseFields("Yerba", decimal.RequireFromString("0.004"))
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestPriceCentsRoundTrip(t *testing.T) {
	price := decimal.RequireFromString("599.99")
	cents := PriceToCents(price)
	assert.Equal(t, int64(59999), cents)
	assert.True(t, PriceFromCents(cents).Equal(price))
}
