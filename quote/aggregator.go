package quote

import (
	"context"

	"github.com/Azurepeal/matrixswap-lib/amount"
	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Routing constraints sent with every request. The provider caps route
// search with them; values match the deployed route solver.
const (
	// DefaultMaxEdge caps route graph edges.
	DefaultMaxEdge = 4
	// DefaultMaxSplit caps path splits.
	DefaultMaxSplit = 10
)

// LegRequest binds one quote request to the endpoint of the chain it
// executes on, plus the symbols tying the leg into a cross-chain route.
type LegRequest struct {
	Endpoint   string
	Request    *types.QuoteRequest
	FromSymbol string
	ToSymbol   string
}

// Aggregator normalizes provider responses into quotes and routes.
type Aggregator struct {
	client *Client
	logger *logrus.Logger
}

// NewAggregator creates an aggregator on top of the given client.
func NewAggregator(client *Client, logger *logrus.Logger) *Aggregator {
	return &Aggregator{client: client, logger: logger}
}

// FetchQuote fetches a same-chain quote. The chain's single endpoint returns
// every provider sub-quote in one response, so there is no fan-out here,
// only normalization and retry. A zero or empty amount is never sent to the
// network; the result is simply "nothing to quote".
//
// Parameters:
// - ctx: the context for managing the request.
// - endpoint: the chain's provider endpoint base URL.
// - request: the quote request.
//
// Returns:
// - *types.Quote: the quote, nil when the amount is zero.
// - error: an error if the fetch failed after retries.
func (a *Aggregator) FetchQuote(ctx context.Context, endpoint string, request *types.QuoteRequest) (*types.Quote, error) {
	if request == nil || request.Amount == "" || request.Amount == "0" {
		return nil, nil
	}
	return a.client.Calculate(ctx, endpoint, request)
}

// FetchRoute fetches both legs of a cross-chain route concurrently against
// their distinct endpoints. The join is all-or-nothing: if either leg fails
// the whole route fetch fails and no partial route is returned.
//
// Parameters:
// - ctx: the context for managing the request.
// - legs: the two leg requests, source chain first.
//
// Returns:
// - *types.Route: the route with both legs populated.
// - error: an error if either leg failed.
func (a *Aggregator) FetchRoute(ctx context.Context, legs [2]LegRequest) (*types.Route, error) {
	for _, leg := range legs {
		if leg.Request == nil || leg.Request.Amount == "" || leg.Request.Amount == "0" {
			return nil, nil
		}
	}

	var quotes [2]*types.Quote
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range legs {
		i := i
		group.Go(func() error {
			q, err := a.client.Calculate(groupCtx, legs[i].Endpoint, legs[i].Request)
			if err != nil {
				return pkgerrors.Wrapf(err, "leg %d (%s) fetch failed", i+1, legs[i].Request.SourceChain)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	route := &types.Route{}
	for i := range legs {
		route.Legs[i] = types.RouteLeg{
			Chain:      legs[i].Request.SourceChain,
			FromSymbol: legs[i].FromSymbol,
			ToSymbol:   legs[i].ToSymbol,
			Quote:      quotes[i],
		}
	}

	a.logger.WithFields(logrus.Fields{
		"fromChain": route.Legs[0].Chain,
		"toChain":   route.Legs[1].Chain,
		"out":       route.ExpectedOut(),
	}).Debug("Cross-chain route fetched")

	return route, nil
}

// RouteParams describes a cross-chain swap for candidate construction.
type RouteParams struct {
	FromConfig   *types.ChainConfig
	ToConfig     *types.ChainConfig
	FromTokens   []types.Token
	ToTokens     []types.Token
	TokenInAddr  string
	TokenOutAddr string
	RawAmount    string
	From         string
	SlippageBps  int
	WithCycle    bool
}

// BuildRouteCandidates constructs the leg-request pairs for a cross-chain
// swap, one candidate per bridgeable intermediate symbol present on both
// chains. Each candidate's first leg swaps the input token into the
// intermediate on the source chain; the bridge relays the intermediate; the
// second leg swaps the intermediate into the output token on the
// destination chain. An intermediate whose address pairing is missing on
// either chain produces no candidate.
//
// Parameters:
// - params: the route construction parameters.
//
// Returns:
// - [][2]LegRequest: one leg pair per viable intermediate, source chain first.
// - error: ErrNoRouteFound when no intermediate pairs up, ErrInvalidAmount on bad input.
func BuildRouteCandidates(params RouteParams) ([][2]LegRequest, error) {
	tokenIn, ok := types.FindTokenByAddress(params.FromTokens, params.TokenInAddr)
	if !ok {
		return nil, pkgerrors.Wrap(errors.ErrNoRouteFound, "input token not bridgeable on source chain")
	}
	tokenOut, ok := types.FindTokenByAddress(params.ToTokens, params.TokenOutAddr)
	if !ok {
		return nil, pkgerrors.Wrap(errors.ErrNoRouteFound, "output token not bridgeable on destination chain")
	}

	legOneAmount, err := amount.Normalize(params.RawAmount, tokenIn.Decimals)
	if err != nil {
		return nil, err
	}

	var candidates [][2]LegRequest
	for _, fromMid := range params.FromTokens {
		toMid, ok := types.FindTokenBySymbol(params.ToTokens, fromMid.Symbol)
		if !ok {
			continue
		}

		// The legs are quoted concurrently, so the second leg's input amount
		// is the user amount re-scaled into the intermediate's decimals; the
		// bridge relays the intermediate one-to-one.
		legTwoAmount, err := amount.Normalize(params.RawAmount, toMid.Decimals)
		if err != nil {
			return nil, err
		}

		candidates = append(candidates, [2]LegRequest{
			{
				Endpoint:   params.FromConfig.QuoteEndpoint,
				FromSymbol: tokenIn.Symbol,
				ToSymbol:   fromMid.Symbol,
				Request: &types.QuoteRequest{
					SourceChain:      params.FromConfig.Name,
					DestinationChain: params.FromConfig.Name,
					TokenInAddr:      tokenIn.Address,
					TokenOutAddr:     fromMid.Address,
					From:             params.From,
					Amount:           legOneAmount.String(),
					SlippageBps:      params.SlippageBps,
					MaxEdge:          DefaultMaxEdge,
					MaxSplit:         DefaultMaxSplit,
					WithCycle:        params.WithCycle,
				},
			},
			{
				Endpoint:   params.ToConfig.QuoteEndpoint,
				FromSymbol: toMid.Symbol,
				ToSymbol:   tokenOut.Symbol,
				Request: &types.QuoteRequest{
					SourceChain:      params.ToConfig.Name,
					DestinationChain: params.ToConfig.Name,
					TokenInAddr:      toMid.Address,
					TokenOutAddr:     tokenOut.Address,
					From:             params.From,
					Amount:           legTwoAmount.String(),
					SlippageBps:      params.SlippageBps,
					MaxEdge:          DefaultMaxEdge,
					MaxSplit:         DefaultMaxSplit,
					WithCycle:        params.WithCycle,
				},
			},
		})
	}

	if len(candidates) == 0 {
		return nil, pkgerrors.Wrap(errors.ErrNoRouteFound, "no bridgeable intermediate on both chains")
	}

	return candidates, nil
}
