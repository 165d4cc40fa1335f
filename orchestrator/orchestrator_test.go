package orchestrator

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/session"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	nativeAddress  = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	tokenAddress   = "0x1111111111111111111111111111111111111111"
	ownerAddress   = "0x9999999999999999999999999999999999999999"
	proxyAddress   = "0x7777777777777777777777777777777777777777"
	approveTxHash  = "0xapprove"
	swapTxHash     = "0xswap"
	depositTxHash  = "0xdeposit"
	depositAddress = "0x4444444444444444444444444444444444444444"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeClient is an in-memory types.ChainClient recording every call.
type fakeClient struct {
	mu sync.Mutex

	allowance    *big.Int
	allowanceErr error

	approveErr    error
	approveAmount *big.Int

	sendErr      error
	sentPayloads []*types.SwapTransaction

	receipts   map[string]*types.Receipt
	receiptErr error

	switchErr error
}

func (f *fakeClient) Connect(ctx context.Context, chain types.Chain) (*types.Wallet, error) {
	return &types.Wallet{Address: ownerAddress, Chain: chain}, nil
}

func (f *fakeClient) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, payload *types.SwapTransaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sentPayloads = append(f.sentPayloads, payload)
	if payload.To == depositAddress {
		return depositTxHash, nil
	}
	return swapTxHash, nil
}

func (f *fakeClient) SwitchChain(ctx context.Context, chain types.Chain) error {
	return f.switchErr
}

func (f *fakeClient) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	receipt, ok := f.receipts[txHash]
	if !ok {
		return &types.Receipt{TxHash: txHash, Status: 1, BlockNumber: 100}, nil
	}
	return receipt, nil
}

func (f *fakeClient) Allowance(ctx context.Context, tokenAddr, owner, spender string) (*big.Int, error) {
	if f.allowanceErr != nil {
		return nil, f.allowanceErr
	}
	return f.allowance, nil
}

func (f *fakeClient) Approve(ctx context.Context, tokenAddr, spender string, amount *big.Int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return "", f.approveErr
	}
	f.approveAmount = amount
	return approveTxHash, nil
}

func (f *fakeClient) GetTokenBalance(ctx context.Context, address, tokenAddr string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeClient) EstimateGas(ctx context.Context, to string, value *big.Int, data []byte) (uint64, error) {
	return 21000, nil
}

// fakeRegistry serves one client for every chain.
type fakeRegistry struct {
	client types.ChainClient
	config *types.ChainConfig
}

func (r *fakeRegistry) Add(ctx context.Context, config *types.ChainConfig) error { return nil }
func (r *fakeRegistry) Get(chain types.Chain) types.ChainClient                  { return r.client }
func (r *fakeRegistry) Config(chain types.Chain) *types.ChainConfig              { return r.config }
func (r *fakeRegistry) Remove(chain types.Chain)                                 {}

// recordingSink collects published events.
type recordingSink struct {
	mu     sync.Mutex
	events []types.EngineEvent
}

func (s *recordingSink) Publish(event types.EngineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) balanceRefreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Type == types.EventBalanceRefresh {
			n++
		}
	}
	return n
}

func testConfig() *types.ChainConfig {
	return &types.ChainConfig{
		Name:                types.ChainBNB,
		ChainID:             56,
		NativeToken:         nativeAddress,
		ApproveProxyAddress: proxyAddress,
	}
}

func swapSnapshot(tokenIn string) *session.Snapshot {
	return &session.Snapshot{
		Candidate: &types.Quote{
			Chain:        types.ChainBNB,
			TokenInAddr:  tokenIn,
			TokenOutAddr: "0x2222222222222222222222222222222222222222",
			AmountIn:     "1000000000000000000",
			Transaction: types.SwapTransaction{
				From:     ownerAddress,
				To:       proxyAddress,
				Data:     "0xdeadbeef",
				Value:    "12345",
				GasLimit: "300000",
			},
		},
		Generation:  1,
		Fingerprint: "fp",
	}
}

func newTestOrchestrator(client *fakeClient, sink types.EventSink) *Orchestrator {
	return New(&fakeRegistry{client: client, config: testConfig()}, sink, testLogger())
}

func TestExecuteSwap(t *testing.T) {
	t.Run("nonzero allowance goes straight to submission", func(t *testing.T) {
		client := &fakeClient{allowance: big.NewInt(1)}
		sink := &recordingSink{}
		o := newTestOrchestrator(client, sink)

		var states []types.SwapState
		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
			Listener: func(s types.SwapState) { states = append(states, s) },
		})
		require.NoError(t, err)
		require.Equal(t, types.OutcomeSuccess, attempt.Outcome)
		require.Equal(t, swapTxHash, attempt.SubmittedHash)
		require.Nil(t, client.approveAmount)
		require.Equal(t, []types.SwapState{
			types.SwapIdle,
			types.SwapCheckingAllowance,
			types.SwapSubmittingSwap,
			types.SwapAwaitingSwapReceipt,
			types.SwapCompleted,
		}, states)
		require.Equal(t, 1, sink.balanceRefreshes())
	})

	t.Run("payload is re-encoded before submission", func(t *testing.T) {
		client := &fakeClient{allowance: big.NewInt(1)}
		o := newTestOrchestrator(client, &recordingSink{})

		_, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
		})
		require.NoError(t, err)
		require.Len(t, client.sentPayloads, 1)

		sent := client.sentPayloads[0]
		require.Equal(t, "0x3039", sent.Value)
		require.Empty(t, sent.GasLimit)
		require.Equal(t, "0xdeadbeef", sent.Data)
	})

	t.Run("native input skips the allowance leg", func(t *testing.T) {
		client := &fakeClient{}
		o := newTestOrchestrator(client, &recordingSink{})

		var states []types.SwapState
		_, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(nativeAddress),
			Owner:    ownerAddress,
			Listener: func(s types.SwapState) { states = append(states, s) },
		})
		require.NoError(t, err)
		require.NotContains(t, states, types.SwapCheckingAllowance)
		require.NotContains(t, states, types.SwapApproving)
	})

	t.Run("zero allowance approves unlimited first", func(t *testing.T) {
		client := &fakeClient{allowance: big.NewInt(0)}
		o := newTestOrchestrator(client, &recordingSink{})

		var states []types.SwapState
		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
			Listener: func(s types.SwapState) { states = append(states, s) },
		})
		require.NoError(t, err)
		require.Equal(t, types.OutcomeSuccess, attempt.Outcome)
		require.Equal(t, maxUint256, client.approveAmount)
		require.Contains(t, states, types.SwapApproving)
		require.Contains(t, states, types.SwapAwaitingApprovalReceipt)
	})

	t.Run("reverted approval aborts before the swap", func(t *testing.T) {
		client := &fakeClient{
			allowance: big.NewInt(0),
			receipts: map[string]*types.Receipt{
				approveTxHash: {TxHash: approveTxHash, Status: 0, BlockNumber: 100},
			},
		}
		o := newTestOrchestrator(client, &recordingSink{})

		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
		})
		require.True(t, pkgerrors.Is(err, errors.ErrApprovalFailed))
		require.Equal(t, types.FailureApproval, attempt.Failure)
		require.Empty(t, client.sentPayloads)
	})

	t.Run("allowance read failure is its own kind", func(t *testing.T) {
		client := &fakeClient{allowanceErr: pkgerrors.New("rpc down")}
		o := newTestOrchestrator(client, &recordingSink{})

		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
		})
		require.True(t, pkgerrors.Is(err, errors.ErrAllowanceReadFailed))
		require.Equal(t, types.FailureAllowanceRead, attempt.Failure)
	})

	t.Run("user rejection refreshes nothing", func(t *testing.T) {
		client := &fakeClient{
			allowance: big.NewInt(1),
			sendErr:   pkgerrors.Wrap(errors.ErrUserRejected, "signature declined"),
		}
		sink := &recordingSink{}
		o := newTestOrchestrator(client, sink)

		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
		})
		require.True(t, pkgerrors.Is(err, errors.ErrUserRejected))
		require.Equal(t, types.FailureUserRejected, attempt.Failure)
		require.Equal(t, types.OutcomeRejected, attempt.Outcome)
		require.Equal(t, 0, sink.balanceRefreshes())
	})

	t.Run("reverted swap still moved balances", func(t *testing.T) {
		client := &fakeClient{
			allowance: big.NewInt(1),
			receipts: map[string]*types.Receipt{
				swapTxHash: {TxHash: swapTxHash, Status: 0, BlockNumber: 100},
			},
		}
		sink := &recordingSink{}
		o := newTestOrchestrator(client, sink)

		var states []types.SwapState
		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: swapSnapshot(tokenAddress),
			Owner:    ownerAddress,
			Listener: func(s types.SwapState) { states = append(states, s) },
		})
		require.True(t, pkgerrors.Is(err, errors.ErrSubmissionFailed))
		require.Equal(t, types.OutcomeReverted, attempt.Outcome)
		require.Equal(t, types.FailureSubmission, attempt.Failure)
		require.Equal(t, types.SwapFailed, states[len(states)-1])
		// Gas was spent either way.
		require.Equal(t, 1, sink.balanceRefreshes())
	})

	t.Run("empty snapshot", func(t *testing.T) {
		o := newTestOrchestrator(&fakeClient{}, &recordingSink{})
		_, err := o.ExecuteSwap(context.Background(), SwapParams{})
		require.ErrorIs(t, err, errors.ErrNoQuoteSelected)
	})

	t.Run("route snapshot executes the first leg", func(t *testing.T) {
		client := &fakeClient{allowance: big.NewInt(1)}
		o := newTestOrchestrator(client, &recordingSink{})

		route := &types.Route{
			Legs: [2]types.RouteLeg{
				{Chain: types.ChainBNB, FromSymbol: "CAKE", ToSymbol: "axlUSDC", Quote: swapSnapshot(tokenAddress).Candidate.(*types.Quote)},
				{Chain: types.ChainPolygon, FromSymbol: "axlUSDC", ToSymbol: "WMATIC", Quote: &types.Quote{}},
			},
		}
		attempt, err := o.ExecuteSwap(context.Background(), SwapParams{
			Snapshot: &session.Snapshot{Candidate: route, Generation: 1, Fingerprint: "fp"},
			Owner:    ownerAddress,
		})
		require.NoError(t, err)
		require.Equal(t, types.ChainBNB, attempt.Chain)
	})
}
