package types

import (
	"context"
	"math/big"
)

// Chain identifies a supported chain by its display name.
type Chain string

const (
	// ChainBNB is BNB Smart Chain mainnet.
	ChainBNB Chain = "BNB"
	// ChainPolygon is Polygon PoS mainnet.
	ChainPolygon Chain = "polygon"
)

// String converts Chain to its string representation.
func (c Chain) String() string {
	return string(c)
}

// ChainConfig holds the configuration for a specific chain implementation.
//
// Fields:
// - Name: the chain identifier.
// - ChainType: the type of the chain.
// - ChainID: the numeric chain id used in transactions.
// - RpcUrl: the URL for the chain's RPC endpoint.
// - QuoteEndpoint: the base URL of the chain's quote provider API.
// - NativeToken: the pseudo-address representing the chain's native asset.
// - WrappedNativeToken: the wrapped native token contract address.
// - RouteProxyAddress: the routing proxy contract executing swaps. Swap
//   payloads arrive from the provider with the target prebuilt; the address
//   is carried so embedders can display it and verify payload destinations.
// - ApproveProxyAddress: the spender address for token approvals.
// - ExplorerTxURL: block explorer transaction URL prefix.
// - TxType: the type of transactions supported by the chain.
// - WaitNBlocks: the number of blocks to wait for transaction confirmation.
// - PrivateKey: the private key for the local-key wallet adapter, optional.
type ChainConfig struct {
	Name                Chain
	ChainType           ChainType
	ChainID             uint64
	RpcUrl              string
	QuoteEndpoint       string
	NativeToken         string
	WrappedNativeToken  string
	RouteProxyAddress   string
	ApproveProxyAddress string
	ExplorerTxURL       string
	TxType              uint64
	WaitNBlocks         uint64
	PrivateKey          string
}

// ExplorerURL builds the block explorer URL for a transaction hash.
func (c *ChainConfig) ExplorerURL(txHash string) string {
	return c.ExplorerTxURL + txHash
}

// Wallet represents a connected wallet account.
type Wallet struct {
	Address string
	Chain   Chain
}

// Receipt is the confirmation result of a submitted transaction.
type Receipt struct {
	TxHash      string
	Status      uint64
	BlockNumber uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == 1
}

// WalletAdapter is the capability interface the engine depends on for
// account access and raw transaction execution. Implementations that have no
// result to return must return an error; the engine treats an empty result as
// a failed attempt, never as success.
type WalletAdapter interface {
	// Connect connects the wallet to the given chain and returns the account.
	Connect(ctx context.Context, chain Chain) (*Wallet, error)

	// GetBalance returns the native-asset balance of the address in base units.
	GetBalance(ctx context.Context, address string) (*big.Int, error)

	// SendTransaction submits the payload and returns the transaction hash.
	SendTransaction(ctx context.Context, payload *SwapTransaction) (string, error)

	// SwitchChain switches the wallet's active chain.
	SwitchChain(ctx context.Context, chain Chain) error

	// WaitForReceipt blocks until the transaction is confirmed.
	WaitForReceipt(ctx context.Context, txHash string) (*Receipt, error)
}

// TokenCaller provides ERC-20 allowance reads and approvals.
type TokenCaller interface {
	// Allowance reads allowance(owner, spender) on the token contract.
	Allowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error)

	// Approve submits approve(spender, amount) and returns the transaction hash.
	Approve(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error)
}

// BalanceProvider provides token balance reads.
type BalanceProvider interface {
	// GetTokenBalance returns the balance of the token for the address.
	// An empty or zero token address reads the native-asset balance.
	GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error)
}

// GasEstimator provides gas estimation functionality.
type GasEstimator interface {
	// EstimateGas estimates the gas required for a transaction.
	EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error)
}

// ChainClient combines all chain-side capabilities consumed by the engine.
type ChainClient interface {
	WalletAdapter
	TokenCaller
	BalanceProvider
	GasEstimator
}

// ChainRegistry manages clients for multiple chains.
type ChainRegistry interface {
	// Add creates a client for the chain configuration and registers it.
	Add(ctx context.Context, config *ChainConfig) error

	// Get retrieves a registered chain client, nil when unknown.
	Get(chain Chain) ChainClient

	// Config retrieves the configuration the chain was registered with.
	Config(chain Chain) *ChainConfig

	// Remove removes a chain client from the registry.
	Remove(chain Chain)
}
