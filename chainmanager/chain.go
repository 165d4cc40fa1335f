package chainmanager

import (
	"context"
	"math/big"
	"sync"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
)

// Chain implements the types.ChainClient interface with thread-safe access
// to its capabilities. A capability left unset by the builder reports
// ErrNotImplemented instead of panicking; a read-only chain simply has no
// wallet adapter.
type Chain struct {
	config    *types.ChainConfig    // Chain configuration.
	wallet    types.WalletAdapter   // Wallet adapter implementation.
	tokens    types.TokenCaller     // Token caller implementation.
	provider  types.BalanceProvider // Balance provider implementation.
	estimator types.GasEstimator    // Gas estimator implementation.

	// Mutexes for thread-safe access to capabilities.
	walletMutex    sync.RWMutex // Mutex for wallet adapter.
	tokensMutex    sync.RWMutex // Mutex for token caller.
	providerMutex  sync.RWMutex // Mutex for balance provider.
	estimatorMutex sync.RWMutex // Mutex for gas estimator.
}

// NewChain creates a new Chain instance.
//
// Parameters:
// - config: the chain configuration.
// - wallet: the wallet adapter implementation.
// - tokens: the token caller implementation.
// - provider: the balance provider implementation.
// - estimator: the gas estimator implementation.
//
// Returns:
// - *Chain: a new Chain instance.
func NewChain(
	config *types.ChainConfig,
	wallet types.WalletAdapter,
	tokens types.TokenCaller,
	provider types.BalanceProvider,
	estimator types.GasEstimator,
) *Chain {
	return &Chain{
		config:    config,
		wallet:    wallet,
		tokens:    tokens,
		provider:  provider,
		estimator: estimator,
	}
}

// Connect connects the wallet on the given chain with thread-safe access.
func (c *Chain) Connect(ctx context.Context, chain types.Chain) (*types.Wallet, error) {
	c.walletMutex.RLock()
	wallet := c.wallet
	c.walletMutex.RUnlock()

	if wallet == nil {
		return nil, errors.ErrNotImplemented
	}
	return wallet.Connect(ctx, chain)
}

// GetBalance returns the native-asset balance with thread-safe access.
func (c *Chain) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	c.walletMutex.RLock()
	wallet := c.wallet
	c.walletMutex.RUnlock()

	if wallet == nil {
		return nil, errors.ErrNotImplemented
	}
	return wallet.GetBalance(ctx, address)
}

// SendTransaction submits the payload with thread-safe access.
func (c *Chain) SendTransaction(ctx context.Context, payload *types.SwapTransaction) (string, error) {
	c.walletMutex.RLock()
	wallet := c.wallet
	c.walletMutex.RUnlock()

	if wallet == nil {
		return "", errors.ErrNotImplemented
	}
	return wallet.SendTransaction(ctx, payload)
}

// SwitchChain switches the wallet's active chain with thread-safe access.
func (c *Chain) SwitchChain(ctx context.Context, chain types.Chain) error {
	c.walletMutex.RLock()
	wallet := c.wallet
	c.walletMutex.RUnlock()

	if wallet == nil {
		return errors.ErrNotImplemented
	}
	return wallet.SwitchChain(ctx, chain)
}

// WaitForReceipt waits for confirmation with thread-safe access.
func (c *Chain) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	c.walletMutex.RLock()
	wallet := c.wallet
	c.walletMutex.RUnlock()

	if wallet == nil {
		return nil, errors.ErrNotImplemented
	}
	return wallet.WaitForReceipt(ctx, txHash)
}

// Allowance reads the token allowance with thread-safe access.
func (c *Chain) Allowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error) {
	c.tokensMutex.RLock()
	tokens := c.tokens
	c.tokensMutex.RUnlock()

	if tokens == nil {
		return nil, errors.ErrNotImplemented
	}
	return tokens.Allowance(ctx, tokenAddress, owner, spender)
}

// Approve submits a token approval with thread-safe access.
func (c *Chain) Approve(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error) {
	c.tokensMutex.RLock()
	tokens := c.tokens
	c.tokensMutex.RUnlock()

	if tokens == nil {
		return "", errors.ErrNotImplemented
	}
	return tokens.Approve(ctx, tokenAddress, spender, amount)
}

// GetTokenBalance returns the token balance with thread-safe access.
func (c *Chain) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	c.providerMutex.RLock()
	provider := c.provider
	c.providerMutex.RUnlock()

	if provider == nil {
		return nil, errors.ErrNotImplemented
	}
	return provider.GetTokenBalance(ctx, address, tokenAddress)
}

// EstimateGas estimates transaction gas with thread-safe access.
func (c *Chain) EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error) {
	c.estimatorMutex.RLock()
	estimator := c.estimator
	c.estimatorMutex.RUnlock()

	if estimator == nil {
		return 0, errors.ErrNotImplemented
	}
	return estimator.EstimateGas(ctx, to, value, data)
}

// GetConfig returns chain configuration.
//
// Returns:
// - *types.ChainConfig: the chain configuration instance.
func (c *Chain) GetConfig() *types.ChainConfig {
	return c.config
}
