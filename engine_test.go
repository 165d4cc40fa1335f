package matrixswap

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/quote"
	"github.com/Azurepeal/matrixswap-lib/session"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const testOwner = "0x5555555555555555555555555555555555555555"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeChainClient answers Connect and rejects everything else.
type fakeChainClient struct {
	chain types.Chain
}

func (c *fakeChainClient) Connect(ctx context.Context, chain types.Chain) (*types.Wallet, error) {
	return &types.Wallet{Address: testOwner, Chain: chain}, nil
}

func (c *fakeChainClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return nil, errors.ErrNotImplemented
}

func (c *fakeChainClient) SendTransaction(ctx context.Context, payload *types.SwapTransaction) (string, error) {
	return "", errors.ErrNotImplemented
}

func (c *fakeChainClient) SwitchChain(ctx context.Context, chain types.Chain) error {
	return errors.ErrNotImplemented
}

func (c *fakeChainClient) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	return nil, errors.ErrNotImplemented
}

func (c *fakeChainClient) Allowance(ctx context.Context, tokenAddress, owner, spender string) (*big.Int, error) {
	return nil, errors.ErrNotImplemented
}

func (c *fakeChainClient) Approve(ctx context.Context, tokenAddress, spender string, amount *big.Int) (string, error) {
	return "", errors.ErrNotImplemented
}

func (c *fakeChainClient) GetTokenBalance(ctx context.Context, address string, tokenAddress string) (*big.Int, error) {
	return nil, errors.ErrNotImplemented
}

func (c *fakeChainClient) EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error) {
	return 0, errors.ErrNotImplemented
}

// fakeRegistry serves static clients and configs.
type fakeRegistry struct {
	clients map[types.Chain]types.ChainClient
	configs map[types.Chain]*types.ChainConfig
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		clients: map[types.Chain]types.ChainClient{
			types.ChainBNB:     &fakeChainClient{chain: types.ChainBNB},
			types.ChainPolygon: &fakeChainClient{chain: types.ChainPolygon},
		},
		configs: map[types.Chain]*types.ChainConfig{
			types.ChainBNB:     {Name: types.ChainBNB, ChainID: 56, QuoteEndpoint: "http://bnb.invalid"},
			types.ChainPolygon: {Name: types.ChainPolygon, ChainID: 137, QuoteEndpoint: "http://polygon.invalid"},
		},
	}
}

func (r *fakeRegistry) Add(ctx context.Context, config *types.ChainConfig) error { return nil }

func (r *fakeRegistry) Get(chain types.Chain) types.ChainClient { return r.clients[chain] }

func (r *fakeRegistry) Config(chain types.Chain) *types.ChainConfig { return r.configs[chain] }

func (r *fakeRegistry) Remove(chain types.Chain) {}

// countingTokenSource records how often the bridgeable lists are consulted.
type countingTokenSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingTokenSource) TokensFor(chain types.Chain) []types.Token { return nil }

func (s *countingTokenSource) BridgeableTokensFor(chain types.Chain) []types.Token {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil
}

func (s *countingTokenSource) bridgeableCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestEngine(t *testing.T, tokens TokenSource, initial session.Selection) *Engine {
	t.Helper()
	logger := testLogger()
	engine, err := New(Options{
		Registry:   newFakeRegistry(),
		Aggregator: quote.NewAggregator(quote.NewClient(quote.RetryPolicy{MaxAttempts: 1}, logger), logger),
		Tokens:     tokens,
		Logger:     logger,
		Initial:    initial,
	})
	require.NoError(t, err)
	return engine
}

func crossChainSelection(rawAmount string) session.Selection {
	return session.Selection{
		FromChain:  types.ChainBNB,
		ToChain:    types.ChainPolygon,
		TokenIn:    types.Token{Address: "0xaaa0000000000000000000000000000000000001", Symbol: "CAKE", Decimals: 18},
		TokenOut:   types.Token{Address: "0xaaa0000000000000000000000000000000000002", Symbol: "WMATIC", Decimals: 18},
		RawAmount:  rawAmount,
		CrossChain: true,
	}
}

func TestConnectWalletConcurrentWithRefresh(t *testing.T) {
	engine := newTestEngine(t, &countingTokenSource{}, crossChainSelection("1"))
	defer engine.Close()

	// Refreshes read the owner address while the embedder reconnects the
	// wallet; both must be able to run at once.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, _ = engine.RefreshQuote(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := engine.ConnectWallet(context.Background(), types.ChainBNB)
			require.NoError(t, err)
		}
	}()
	wg.Wait()

	wallet, err := engine.ConnectWallet(context.Background(), types.ChainBNB)
	require.NoError(t, err)
	require.Equal(t, testOwner, wallet.Address)
}

func TestRefreshQuoteCrossChainZeroAmount(t *testing.T) {
	t.Run("fractional zero quotes nothing", func(t *testing.T) {
		tokens := &countingTokenSource{}
		engine := newTestEngine(t, tokens, crossChainSelection("0.0"))
		defer engine.Close()

		candidate, err := engine.RefreshQuote(context.Background())
		require.NoError(t, err)
		require.Nil(t, candidate)
		require.Nil(t, engine.CurrentQuote())
		require.Equal(t, 0, tokens.bridgeableCalls())
	})

	t.Run("unparsable leftover quotes nothing", func(t *testing.T) {
		tokens := &countingTokenSource{}
		engine := newTestEngine(t, tokens, crossChainSelection("."))
		defer engine.Close()

		candidate, err := engine.RefreshQuote(context.Background())
		require.NoError(t, err)
		require.Nil(t, candidate)
		require.Equal(t, 0, tokens.bridgeableCalls())
	})
}
