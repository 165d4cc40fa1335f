package quote

import (
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/shopspring/decimal"
)

// SelectBest returns the candidate with the numerically largest expected
// output amount. Comparison is exact decimal comparison on the base-unit
// strings; base-unit integers routinely exceed the float64 safe range, so
// they are never run through native floats. Ties keep the first-seen
// candidate, making selection deterministic in input order.
//
// Candidates are dropped when their output amount is empty or unparsable,
// and cross-chain routes are dropped when their legs do not chain. Returns
// nil when nothing survives.
func SelectBest(candidates []types.RouteCandidate) types.RouteCandidate {
	var best types.RouteCandidate
	var bestOut decimal.Decimal

	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if route, ok := candidate.(*types.Route); ok && !route.Chained() {
			continue
		}

		out, err := decimal.NewFromString(candidate.ExpectedOut())
		if err != nil {
			continue
		}

		if best == nil || out.GreaterThan(bestOut) {
			best = candidate
			bestOut = out
		}
	}

	return best
}
