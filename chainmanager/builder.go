package chainmanager

import (
	"github.com/Azurepeal/matrixswap-lib/common/types"
)

// ChainBuilder is a builder pattern implementation for chain configuration.
// It allows setting various capabilities of the chain such as the wallet
// adapter, token caller, balance provider, and gas estimator.
type ChainBuilder struct {
	config    *types.ChainConfig    // Chain configuration.
	wallet    types.WalletAdapter   // Wallet adapter implementation.
	tokens    types.TokenCaller     // Token caller implementation.
	provider  types.BalanceProvider // Balance provider implementation.
	estimator types.GasEstimator    // Gas estimator implementation.
}

// NewChainBuilder creates a new chain builder instance.
//
// Parameters:
// - config: the chain configuration.
//
// Returns:
// - *ChainBuilder: a new ChainBuilder instance.
func NewChainBuilder(config *types.ChainConfig) *ChainBuilder {
	return &ChainBuilder{
		config: config,
	}
}

// WithWalletAdapter sets wallet adapter implementation.
//
// Parameters:
// - wallet: the wallet adapter implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithWalletAdapter(wallet types.WalletAdapter) *ChainBuilder {
	b.wallet = wallet
	return b
}

// WithTokenCaller sets token caller implementation.
//
// Parameters:
// - tokens: the token caller implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithTokenCaller(tokens types.TokenCaller) *ChainBuilder {
	b.tokens = tokens
	return b
}

// WithBalanceProvider sets balance provider implementation.
//
// Parameters:
// - provider: the balance provider implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithBalanceProvider(provider types.BalanceProvider) *ChainBuilder {
	b.provider = provider
	return b
}

// WithGasEstimator sets gas estimator implementation.
//
// Parameters:
// - estimator: the gas estimator implementation.
//
// Returns:
// - *ChainBuilder: the updated ChainBuilder instance.
func (b *ChainBuilder) WithGasEstimator(estimator types.GasEstimator) *ChainBuilder {
	b.estimator = estimator
	return b
}

// Build creates a new Chain instance with the configured capabilities.
//
// Returns:
// - *Chain: a new Chain instance.
func (b *ChainBuilder) Build() *Chain {
	return NewChain(b.config, b.wallet, b.tokens, b.provider, b.estimator)
}
