package pricing

import (
	"context"
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestImpact(t *testing.T) {
	t.Run("positive impact", func(t *testing.T) {
		// Paying 100 units at spot 1 for 99 units at spot 1 is a 1.0101...%
		// premium over spot.
		impact, err := Impact(dec("100"), dec("1"), dec("99"), dec("1"))
		require.NoError(t, err)

		expected := dec("100").Div(dec("99")).Sub(dec("1")).Mul(dec("100"))
		require.True(t, impact.Equal(expected))
	})

	t.Run("negative impact on a favorable quote", func(t *testing.T) {
		impact, err := Impact(dec("100"), dec("1"), dec("101"), dec("1"))
		require.NoError(t, err)
		require.True(t, impact.IsNegative())
	})

	t.Run("spot prices weigh in", func(t *testing.T) {
		// 2 in at $3000 for 5999 out at $1: paying $6000 for $5999.
		impact, err := Impact(dec("2"), dec("3000"), dec("5999"), dec("1"))
		require.NoError(t, err)
		require.True(t, impact.GreaterThan(decimal.Zero))
		require.True(t, impact.LessThan(dec("0.02")))
	})

	t.Run("zero output cannot produce a number", func(t *testing.T) {
		_, err := Impact(dec("100"), dec("1"), decimal.Zero, dec("1"))
		require.ErrorIs(t, err, errors.ErrImpactUnavailable)
	})

	t.Run("zero output spot cannot produce a number", func(t *testing.T) {
		_, err := Impact(dec("100"), dec("1"), dec("99"), decimal.Zero)
		require.ErrorIs(t, err, errors.ErrImpactUnavailable)
	})
}

// stubOracle serves canned prices and misses for everything else.
type stubOracle struct {
	prices map[string]decimal.Decimal
}

func (o *stubOracle) PriceUSD(_ context.Context, chain types.Chain, tokenAddress string) (decimal.Decimal, bool, error) {
	price, ok := o.prices[chain.String()+":"+tokenAddress]
	return price, ok, nil
}

func TestImpactForSwap(t *testing.T) {
	tokenIn := types.Token{Address: "0xaaa", Symbol: "CAKE"}
	tokenOut := types.Token{Address: "0xbbb", Symbol: "WMATIC"}

	t.Run("both spots available", func(t *testing.T) {
		calc := NewCalculator(&stubOracle{prices: map[string]decimal.Decimal{
			"BNB:0xaaa":     dec("2"),
			"polygon:0xbbb": dec("1"),
		}}, testLogger())

		impact, err := calc.ImpactForSwap(context.Background(), types.ChainBNB, types.ChainPolygon, tokenIn, tokenOut, dec("50"), dec("99"))
		require.NoError(t, err)
		require.NotNil(t, impact)
		require.True(t, impact.GreaterThan(decimal.Zero))
	})

	t.Run("missing spot is a miss, not an error", func(t *testing.T) {
		calc := NewCalculator(&stubOracle{prices: map[string]decimal.Decimal{
			"BNB:0xaaa": dec("2"),
		}}, testLogger())

		impact, err := calc.ImpactForSwap(context.Background(), types.ChainBNB, types.ChainPolygon, tokenIn, tokenOut, dec("50"), dec("99"))
		require.NoError(t, err)
		require.Nil(t, impact)
	})

	t.Run("zero output surfaces unavailability", func(t *testing.T) {
		calc := NewCalculator(&stubOracle{prices: map[string]decimal.Decimal{
			"BNB:0xaaa": dec("2"),
			"BNB:0xbbb": dec("1"),
		}}, testLogger())

		_, err := calc.ImpactForSwap(context.Background(), types.ChainBNB, types.ChainBNB, tokenIn, tokenOut, dec("50"), decimal.Zero)
		require.ErrorIs(t, err, errors.ErrImpactUnavailable)
	})
}
