// Package matrixswap ties the engine together: the swap session, the
// debounced quote refresh loop, route selection, price impact and the
// transaction orchestrator, all behind one facade embedders drive.
package matrixswap

import (
	"context"
	"sync"
	"time"

	"github.com/Azurepeal/matrixswap-lib/amount"
	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/orchestrator"
	"github.com/Azurepeal/matrixswap-lib/pricing"
	"github.com/Azurepeal/matrixswap-lib/quote"
	"github.com/Azurepeal/matrixswap-lib/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// refreshTimeout bounds one debounced quote refresh.
const refreshTimeout = 30 * time.Second

// TokenSource supplies token lists per chain. fileconfig.Config and the
// dbconfig-backed loaders both satisfy it.
type TokenSource interface {
	// TokensFor returns the swappable token list for the chain.
	TokensFor(chain types.Chain) []types.Token

	// BridgeableTokensFor returns the tokens the bridge network carries on
	// the chain; cross-chain route candidates pivot on these.
	BridgeableTokensFor(chain types.Chain) []types.Token
}

// Options configures an Engine.
//
// Fields:
// - Registry: the chain registry with all supported chains added.
// - Aggregator: the quote aggregator.
// - Pricing: the price impact calculator, optional.
// - Bridge: the bridge API resolver, required only for deposits.
// - Tokens: the token list source.
// - Events: the sink receiving engine events, optional.
// - Logger: the logger for logging events.
// - DebounceWindow: the input debounce window, default 200ms.
// - Initial: the initial swap selection.
type Options struct {
	Registry       types.ChainRegistry
	Aggregator     *quote.Aggregator
	Pricing        *pricing.Calculator
	Bridge         orchestrator.BridgeResolver
	Tokens         TokenSource
	Events         types.EventSink
	Logger         *logrus.Logger
	DebounceWindow time.Duration
	Initial        session.Selection
}

// Engine is the embedder-facing facade over the swap machinery.
type Engine struct {
	registry     types.ChainRegistry
	aggregator   *quote.Aggregator
	pricing      *pricing.Calculator
	bridge       orchestrator.BridgeResolver
	tokens       TokenSource
	events       types.EventSink
	logger       *logrus.Logger
	session      *session.Session
	debouncer    *session.Debouncer
	orchestrator *orchestrator.Orchestrator

	// walletMutex guards wallet: the embedder's UI thread connects while
	// debounced refreshes read the owner address on the timer goroutine.
	walletMutex sync.RWMutex
	wallet      *types.Wallet
}

// New creates an engine from the options.
//
// Returns:
// - *Engine: the engine.
// - error: ErrInvalidConfig when a required dependency is missing.
func New(opts Options) (*Engine, error) {
	if opts.Registry == nil || opts.Aggregator == nil || opts.Tokens == nil || opts.Logger == nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidConfig, "registry, aggregator, tokens and logger are required")
	}

	return &Engine{
		registry:     opts.Registry,
		aggregator:   opts.Aggregator,
		pricing:      opts.Pricing,
		bridge:       opts.Bridge,
		tokens:       opts.Tokens,
		events:       opts.Events,
		logger:       opts.Logger,
		session:      session.New(opts.Initial, opts.Logger),
		debouncer:    session.NewDebouncer(opts.DebounceWindow),
		orchestrator: orchestrator.New(opts.Registry, opts.Events, opts.Logger),
	}, nil
}

// Close stops the debounce timer. In-flight refreshes finish on their own.
func (e *Engine) Close() {
	e.debouncer.Stop()
}

// Selection returns a copy of the current swap selection.
func (e *Engine) Selection() session.Selection {
	return e.session.Selection()
}

// ConnectWallet connects the wallet on the chain and remembers the account
// as the owner of subsequent attempts.
func (e *Engine) ConnectWallet(ctx context.Context, chain types.Chain) (*types.Wallet, error) {
	client := e.registry.Get(chain)
	if client == nil {
		return nil, pkgerrors.Wrapf(errors.ErrChainNotFound, "chain %s", chain)
	}

	wallet, err := client.Connect(ctx, chain)
	if err != nil {
		return nil, err
	}

	e.walletMutex.Lock()
	e.wallet = wallet
	e.walletMutex.Unlock()

	return wallet, nil
}

// currentWallet returns the connected wallet with thread-safe access, nil
// when no wallet is connected.
func (e *Engine) currentWallet() *types.Wallet {
	e.walletMutex.RLock()
	wallet := e.wallet
	e.walletMutex.RUnlock()
	return wallet
}

// SetAmount updates the input amount from raw keyboard input and schedules
// a debounced quote refresh. The raw value is sanitized, never rejected:
// invalid leftovers surface later as "nothing to quote".
func (e *Engine) SetAmount(raw string) {
	e.session.Update(func(sel *session.Selection) {
		sel.RawAmount = amount.Sanitize(raw)
	})
	e.scheduleRefresh()
}

// SetTokenIn updates the input token and schedules a refresh.
func (e *Engine) SetTokenIn(token types.Token) {
	e.session.Update(func(sel *session.Selection) {
		sel.TokenIn = token
	})
	e.scheduleRefresh()
}

// SetTokenOut updates the output token and schedules a refresh.
func (e *Engine) SetTokenOut(token types.Token) {
	e.session.Update(func(sel *session.Selection) {
		sel.TokenOut = token
	})
	e.scheduleRefresh()
}

// SetChains updates the chain pair and schedules a refresh. Selecting the
// same chain twice turns the session into a single-chain swap.
func (e *Engine) SetChains(from, to types.Chain) {
	e.session.Update(func(sel *session.Selection) {
		sel.FromChain = from
		sel.ToChain = to
		sel.CrossChain = from != to
	})
	e.scheduleRefresh()
}

// SetSlippage updates the slippage tolerance and schedules a refresh.
func (e *Engine) SetSlippage(bps int) {
	e.session.Update(func(sel *session.Selection) {
		sel.SlippageBps = bps
	})
	e.scheduleRefresh()
}

// Reverse swaps the token and chain pairs, resets the amount to zero and
// schedules a refresh, which will find nothing to quote until a new amount
// is typed.
func (e *Engine) Reverse() {
	e.session.Reverse()
	e.scheduleRefresh()
}

// scheduleRefresh arms the debouncer; bursts of input changes collapse into
// one refresh.
func (e *Engine) scheduleRefresh() {
	e.debouncer.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if _, err := e.RefreshQuote(ctx); err != nil {
			e.logger.WithError(err).Warn("Quote refresh failed")
		}
	})
}

// RefreshQuote fetches quotes for the current selection and installs the
// best candidate as the session's current quote. A result is discarded if a
// newer refresh started, or the selection changed, while it was in flight.
//
// Returns:
// - types.RouteCandidate: the installed candidate, nil when there is nothing to quote.
// - error: an error if the fetch failed; the session is left with no current route.
func (e *Engine) RefreshQuote(ctx context.Context) (types.RouteCandidate, error) {
	sel := e.session.Selection()

	if sel.CrossChain && sel.FromChain != sel.ToChain {
		return e.refreshRoute(ctx, sel)
	}
	return e.refreshSingle(ctx, sel)
}

// refreshSingle refreshes a single-chain quote.
func (e *Engine) refreshSingle(ctx context.Context, sel session.Selection) (types.RouteCandidate, error) {
	config := e.registry.Config(sel.FromChain)
	if config == nil {
		return nil, pkgerrors.Wrapf(errors.ErrChainNotFound, "chain %s", sel.FromChain)
	}

	request, err := e.buildRequest(sel, config)
	if err != nil {
		// Unparsable input quotes nothing; it is not surfaced as a failure.
		e.session.Commit(e.session.Begin(""), "", nil)
		return nil, nil
	}

	generation := e.session.Begin(request.Fingerprint())

	fetched, err := e.aggregator.FetchQuote(ctx, config.QuoteEndpoint, request)
	if err != nil {
		e.session.Invalidate(generation)
		return nil, err
	}

	var candidate types.RouteCandidate
	if fetched != nil {
		candidate = fetched
	}
	if !e.session.Commit(generation, request.Fingerprint(), candidate) {
		return nil, nil
	}
	return candidate, nil
}

// refreshRoute refreshes a cross-chain route: every viable intermediate is
// quoted and the best route wins. A candidate whose fetch fails is skipped;
// the refresh only fails when no candidate survives.
func (e *Engine) refreshRoute(ctx context.Context, sel session.Selection) (types.RouteCandidate, error) {
	fromConfig := e.registry.Config(sel.FromChain)
	toConfig := e.registry.Config(sel.ToChain)
	if fromConfig == nil || toConfig == nil {
		return nil, pkgerrors.Wrap(errors.ErrChainNotFound, "route endpoints not registered")
	}

	fingerprint := e.routeFingerprint(sel)
	generation := e.session.Begin(fingerprint)

	// "0", "0.0" and unparsable leftovers all quote nothing, matching the
	// single-chain path.
	normalized, err := amount.Normalize(sel.RawAmount, sel.TokenIn.Decimals)
	if err != nil || normalized.Sign() == 0 {
		e.session.Commit(generation, fingerprint, nil)
		return nil, nil
	}

	owner := ""
	if wallet := e.currentWallet(); wallet != nil {
		owner = wallet.Address
	}

	legPairs, err := quote.BuildRouteCandidates(quote.RouteParams{
		FromConfig:   fromConfig,
		ToConfig:     toConfig,
		FromTokens:   e.tokens.BridgeableTokensFor(sel.FromChain),
		ToTokens:     e.tokens.BridgeableTokensFor(sel.ToChain),
		TokenInAddr:  sel.TokenIn.Address,
		TokenOutAddr: sel.TokenOut.Address,
		RawAmount:    sel.RawAmount,
		From:         owner,
		SlippageBps:  sel.SlippageBps,
		WithCycle:    sel.CyclicRoutes,
	})
	if err != nil {
		e.session.Invalidate(generation)
		return nil, err
	}

	var candidates []types.RouteCandidate
	for _, legs := range legPairs {
		route, err := e.aggregator.FetchRoute(ctx, legs)
		if err != nil {
			e.logger.WithError(err).Warn("Route candidate fetch failed")
			continue
		}
		if route != nil {
			candidates = append(candidates, route)
		}
	}

	best := quote.SelectBest(candidates)
	if best == nil {
		e.session.Invalidate(generation)
		return nil, pkgerrors.Wrap(errors.ErrQuoteFetchFailed, "no route candidate succeeded")
	}

	if !e.session.Commit(generation, fingerprint, best) {
		return nil, nil
	}
	return best, nil
}

// buildRequest converts the selection into a provider request with the
// amount normalized to the input token's base units.
func (e *Engine) buildRequest(sel session.Selection, config *types.ChainConfig) (*types.QuoteRequest, error) {
	normalized, err := amount.Normalize(sel.RawAmount, sel.TokenIn.Decimals)
	if err != nil {
		return nil, err
	}

	owner := ""
	if wallet := e.currentWallet(); wallet != nil {
		owner = wallet.Address
	}

	return &types.QuoteRequest{
		SourceChain:      sel.FromChain,
		DestinationChain: sel.FromChain,
		TokenInAddr:      sel.TokenIn.Address,
		TokenOutAddr:     sel.TokenOut.Address,
		From:             owner,
		Amount:           normalized.String(),
		SlippageBps:      sel.SlippageBps,
		MaxEdge:          quote.DefaultMaxEdge,
		MaxSplit:         quote.DefaultMaxSplit,
		WithCycle:        sel.CyclicRoutes,
	}, nil
}

// routeFingerprint identifies the cross-chain quote slot.
func (e *Engine) routeFingerprint(sel session.Selection) string {
	request := types.QuoteRequest{
		SourceChain:      sel.FromChain,
		DestinationChain: sel.ToChain,
		TokenInAddr:      sel.TokenIn.Address,
		TokenOutAddr:     sel.TokenOut.Address,
		Amount:           sel.RawAmount,
		SlippageBps:      sel.SlippageBps,
	}
	return request.Fingerprint()
}

// CurrentQuote returns the candidate in the session's quote slot, nil when
// there is no current route.
func (e *Engine) CurrentQuote() types.RouteCandidate {
	return e.session.Current()
}

// PriceImpact computes the price impact of the current quote in percent.
// Returns nil without error when no quote is selected, a spot price is
// missing, or the calculator is not configured: the embedder renders
// "impact unavailable", never a number.
func (e *Engine) PriceImpact(ctx context.Context) (*decimal.Decimal, error) {
	if e.pricing == nil {
		return nil, nil
	}

	current := e.session.Current()
	if current == nil {
		return nil, nil
	}

	sel := e.session.Selection()

	input, err := decimal.NewFromString(amount.Sanitize(sel.RawAmount))
	if err != nil {
		return nil, nil
	}

	outBase, err := decimal.NewFromString(current.ExpectedOut())
	if err != nil {
		return nil, nil
	}
	output := outBase.Shift(int32(-sel.TokenOut.Decimals))

	return e.pricing.ImpactForSwap(ctx, sel.FromChain, sel.ToChain, sel.TokenIn, sel.TokenOut, input, output)
}

// ConfirmSwap pins the current quote, validates the pin against the live
// session and runs the swap state machine on it. A selection or quote
// change between pinning and validation fails with ErrQuoteStale rather
// than submitting a payload the user never saw.
func (e *Engine) ConfirmSwap(ctx context.Context, listener orchestrator.StateListener) (*types.TransactionAttempt, error) {
	wallet := e.currentWallet()
	if wallet == nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidConfig, "wallet not connected")
	}

	snapshot, err := e.session.SnapshotQuote()
	if err != nil {
		return nil, err
	}
	if err := e.session.Validate(snapshot); err != nil {
		return nil, err
	}

	return e.orchestrator.ExecuteSwap(ctx, orchestrator.SwapParams{
		Snapshot: snapshot,
		Owner:    wallet.Address,
		Listener: listener,
	})
}

// ConfirmDeposit runs the bridge-deposit state machine for the current
// cross-chain selection: the input token is deposited on the source chain
// and the bridge network delivers the output token out of band.
func (e *Engine) ConfirmDeposit(ctx context.Context, listener orchestrator.DepositStateListener) (*types.TransactionAttempt, error) {
	if e.bridge == nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidConfig, "bridge resolver not configured")
	}
	wallet := e.currentWallet()
	if wallet == nil {
		return nil, pkgerrors.Wrap(errors.ErrInvalidConfig, "wallet not connected")
	}

	sel := e.session.Selection()
	if !sel.CrossChain || sel.FromChain == sel.ToChain {
		return nil, pkgerrors.Wrap(errors.ErrInvalidConfig, "deposit requires a cross-chain selection")
	}

	return e.orchestrator.ExecuteDeposit(ctx, e.bridge, orchestrator.DepositParams{
		SourceChain:             sel.FromChain,
		DestinationChain:        sel.ToChain,
		Token:                   sel.TokenIn,
		DestinationTokenAddress: sel.TokenOut.Address,
		RawAmount:               sel.RawAmount,
		Owner:                   wallet.Address,
		Listener:                listener,
	})
}

// ExplorerURL builds the block explorer URL for a transaction on the chain,
// empty when the chain is unknown.
func (e *Engine) ExplorerURL(chain types.Chain, txHash string) string {
	config := e.registry.Config(chain)
	if config == nil {
		return ""
	}
	return config.ExplorerURL(txHash)
}
