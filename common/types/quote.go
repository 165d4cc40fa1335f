package types

import (
	"fmt"
	"time"
)

// QuoteRequest is the value object describing one quote fetch. A fresh
// request is constructed per fetch; a Quote is only valid for the exact
// request it was fetched with.
//
// Fields:
// - SourceChain: the chain the input token lives on.
// - DestinationChain: the chain the output token lives on (same as SourceChain for single-chain swaps).
// - TokenInAddr: the input token address.
// - TokenOutAddr: the output token address.
// - From: the user's wallet address.
// - Amount: the input amount as an exact base-unit integer, decimal string.
// - SlippageBps: maximum tolerated slippage in basis points.
// - MaxEdge: maximum number of graph edges in a route.
// - MaxSplit: maximum number of path splits in a route.
// - WithCycle: whether cyclic routing is allowed.
type QuoteRequest struct {
	SourceChain      Chain  `json:"-"`
	DestinationChain Chain  `json:"-"`
	TokenInAddr      string `json:"tokenInAddr"`
	TokenOutAddr     string `json:"tokenOutAddr"`
	From             string `json:"from"`
	Amount           string `json:"amount"`
	SlippageBps      int    `json:"slippageBps"`
	MaxEdge          int    `json:"maxEdge"`
	MaxSplit         int    `json:"maxSplit"`
	WithCycle        bool   `json:"withCycle"`
}

// Fingerprint identifies the logical quote slot the request belongs to.
// Results from an in-flight fetch are discarded when the current slot's
// fingerprint no longer matches, regardless of generation counters.
func (r *QuoteRequest) Fingerprint() string {
	return fmt.Sprintf("%s/%s:%s->%s:%s@%d",
		r.SourceChain, r.DestinationChain, r.TokenInAddr, r.TokenOutAddr, r.Amount, r.SlippageBps)
}

// SwapTransaction is the prebuilt on-chain call payload embedded in a quote.
// Value arrives from the provider as a decimal string and is re-encoded to
// hex before submission to a wallet.
type SwapTransaction struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Data     string `json:"data"`
	Value    string `json:"value"`
	GasLimit string `json:"gasLimit,omitempty"`
}

// SingleDexQuote is one provider's sub-quote inside an aggregated response.
type SingleDexQuote struct {
	DexID             string `json:"dexId"`
	ExpectedAmountOut string `json:"expectedAmountOut"`
}

// Quote is a normalized aggregated quote for a single chain. Immutable once
// received; a newer Quote for the same request supersedes it, it is never
// mutated in place.
type Quote struct {
	Chain             Chain
	TokenInAddr       string
	TokenOutAddr      string
	AmountIn          string
	ExpectedAmountOut string
	Transaction       SwapTransaction
	SingleDexes       []SingleDexQuote
	FetchedAt         time.Time
}

// ExpectedOut returns the quote's output amount in base units.
func (q *Quote) ExpectedOut() string {
	return q.ExpectedAmountOut
}

// TargetChain returns the chain the swap transaction executes on.
func (q *Quote) TargetChain() Chain {
	return q.Chain
}

// RouteLeg is one chain-local swap within a cross-chain route.
type RouteLeg struct {
	Chain      Chain
	FromSymbol string
	ToSymbol   string
	Quote      *Quote
}

// Route is an ordered pair of legs forming a cross-chain swap. The route's
// effective output is the second leg's expected output.
type Route struct {
	Legs [2]RouteLeg
}

// ExpectedOut returns the second leg's output amount in base units.
func (r *Route) ExpectedOut() string {
	if r.Legs[1].Quote == nil {
		return ""
	}
	return r.Legs[1].Quote.ExpectedAmountOut
}

// TargetChain returns the chain the first transaction executes on.
func (r *Route) TargetChain() Chain {
	return r.Legs[0].Chain
}

// Chained reports whether the intermediate token symbols of the two legs
// line up, i.e. leg one's output is leg two's input.
func (r *Route) Chained() bool {
	return r.Legs[0].ToSymbol != "" && r.Legs[0].ToSymbol == r.Legs[1].FromSymbol
}

// RouteCandidate is anything the selector can rank: a single-chain Quote or
// a cross-chain Route.
type RouteCandidate interface {
	ExpectedOut() string
	TargetChain() Chain
}
