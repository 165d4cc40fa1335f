// Package pricing derives display-level price information for quotes: the
// deviation of a quoted execution price from an external spot-price
// reference.
package pricing

import (
	"context"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Oracle supplies a USD unit price per token address on a chain. The second
// return value reports whether the oracle had a price at all; a miss is not
// an error.
type Oracle interface {
	PriceUSD(ctx context.Context, chain types.Chain, tokenAddress string) (decimal.Decimal, bool, error)
}

// Impact computes the percentage deviation of the quoted execution price
// from the spot reference:
//
//	100 * ((inputAmount * inputSpotUSD) / (outputBeforeFee * outputSpotUSD) - 1)
//
// A zero denominator cannot produce a finite percentage and fails with
// ErrImpactUnavailable; callers must render that as "impact unavailable",
// never as a number.
func Impact(inputAmount, inputSpotUSD, outputBeforeFee, outputSpotUSD decimal.Decimal) (decimal.Decimal, error) {
	denominator := outputBeforeFee.Mul(outputSpotUSD)
	if denominator.IsZero() {
		return decimal.Zero, errors.ErrImpactUnavailable
	}

	ratio := inputAmount.Mul(inputSpotUSD).Div(denominator)
	return ratio.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)), nil
}

// Calculator resolves spot prices through an oracle and computes impact for
// a token pair.
type Calculator struct {
	oracle Oracle
	logger *logrus.Logger
}

// NewCalculator creates an impact calculator backed by the oracle.
func NewCalculator(oracle Oracle, logger *logrus.Logger) *Calculator {
	return &Calculator{oracle: oracle, logger: logger}
}

// ImpactForSwap computes the price impact of swapping inputAmount of the
// input token for outputBeforeFee of the output token. The tokens may live
// on different chains; each spot price is resolved on its own chain.
//
// Returns:
// - *decimal.Decimal: the impact percentage, nil when either spot price is unavailable.
// - error: ErrImpactUnavailable on a non-finite result, or an oracle transport error.
func (c *Calculator) ImpactForSwap(
	ctx context.Context,
	chainIn, chainOut types.Chain,
	tokenIn, tokenOut types.Token,
	inputAmount, outputBeforeFee decimal.Decimal,
) (*decimal.Decimal, error) {
	inSpot, ok, err := c.oracle.PriceUSD(ctx, chainIn, tokenIn.Address)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.WithField("token", tokenIn.Symbol).Debug("No spot price for input token")
		return nil, nil
	}

	outSpot, ok, err := c.oracle.PriceUSD(ctx, chainOut, tokenOut.Address)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.WithField("token", tokenOut.Symbol).Debug("No spot price for output token")
		return nil, nil
	}

	impact, err := Impact(inputAmount, inSpot, outputBeforeFee, outSpot)
	if err != nil {
		return nil, err
	}
	return &impact, nil
}
