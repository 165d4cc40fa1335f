// Package orchestrator drives swap and bridge-deposit attempts through
// their state machines: allowance check, approval, submission and
// confirmation against an injected wallet capability.
package orchestrator

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/Azurepeal/matrixswap-lib/session"
	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// maxUint256 is the unlimited allowance requested on approval, so the user
// never has to approve the routing proxy twice for the same token.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// StateListener observes swap state transitions. May be nil.
type StateListener func(state types.SwapState)

// DepositStateListener observes deposit state transitions. May be nil.
type DepositStateListener func(state types.DepositState)

// Orchestrator sequences transaction attempts. It owns no chain clients
// itself; everything on-chain goes through the registry's capabilities.
type Orchestrator struct {
	registry types.ChainRegistry
	events   types.EventSink
	logger   *logrus.Logger
}

// New creates an orchestrator.
//
// Parameters:
// - registry: the chain registry supplying wallet and token capabilities.
// - events: the sink for balance-refresh and state-change events, may be nil.
// - logger: the logger for logging events.
//
// Returns:
// - *Orchestrator: a new orchestrator instance.
func New(registry types.ChainRegistry, events types.EventSink, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, events: events, logger: logger}
}

// SwapParams describes one swap attempt.
//
// Fields:
// - Snapshot: the quote snapshot pinned at confirm-time. The orchestrator
//   only ever reads the snapshot; a refetch completing mid-flight cannot
//   swap the payload underneath a submitted transaction.
// - Owner: the user's wallet address.
// - Listener: optional state transition observer.
type SwapParams struct {
	Snapshot *session.Snapshot
	Owner    string
	Listener StateListener
}

// ExecuteSwap runs the same-chain swap state machine to a terminal state.
// For a cross-chain route snapshot the first leg's quote is executed; the
// remaining transfer belongs to ExecuteDeposit.
//
// The attempt is returned for both terminal states; on Failed its Failure
// field carries the specific kind, and the returned error wraps the
// matching sentinel so callers can keep the kinds apart.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, params SwapParams) (*types.TransactionAttempt, error) {
	quote, err := snapshotQuote(params.Snapshot)
	if err != nil {
		return nil, err
	}

	chain := quote.Chain
	client := o.registry.Get(chain)
	config := o.registry.Config(chain)
	if client == nil || config == nil {
		return nil, pkgerrors.Wrapf(errors.ErrChainNotFound, "chain %s", chain)
	}

	attempt := &types.TransactionAttempt{
		Kind:    types.AttemptSwap,
		Chain:   chain,
		Outcome: types.OutcomePending,
	}

	setState := func(state types.SwapState) {
		if params.Listener != nil {
			params.Listener(state)
		}
		o.publish(types.EngineEvent{
			Type:      types.EventSwapStateChange,
			Chain:     chain,
			SwapState: state,
			At:        time.Now(),
		})
	}
	setState(types.SwapIdle)

	if err := client.SwitchChain(ctx, chain); err != nil {
		return o.failSwap(attempt, setState, types.FailureSubmission, err)
	}

	// The native asset needs no allowance; token inputs do.
	if !strings.EqualFold(quote.TokenInAddr, config.NativeToken) {
		if done, err := o.ensureAllowance(ctx, client, config, quote, params, attempt, setState); done {
			return attempt, err
		}
	}

	setState(types.SwapSubmittingSwap)
	payload, err := buildSwapPayload(quote)
	if err != nil {
		return o.failSwap(attempt, setState, types.FailureSubmission, err)
	}
	attempt.Payload = payload

	txHash, err := client.SendTransaction(ctx, payload)
	if err != nil {
		if pkgerrors.Is(err, errors.ErrUserRejected) {
			attempt.Outcome = types.OutcomeRejected
			return o.failSwap(attempt, setState, types.FailureUserRejected, err)
		}
		return o.failSwap(attempt, setState, types.FailureSubmission, err)
	}
	if txHash == "" {
		return o.failSwap(attempt, setState, types.FailureSubmission, errors.ErrSubmissionFailed)
	}
	attempt.SubmittedHash = txHash

	setState(types.SwapAwaitingSwapReceipt)
	receipt, err := client.WaitForReceipt(ctx, txHash)
	if err != nil || receipt == nil {
		return o.failSwap(attempt, setState, types.FailureSubmission, pkgerrors.Wrap(errors.ErrSubmissionFailed, "swap receipt wait failed"))
	}
	attempt.Receipt = receipt

	// The chain confirmed something either way; balances moved at least by gas.
	o.publish(types.EngineEvent{
		Type:   types.EventBalanceRefresh,
		Chain:  chain,
		TxHash: txHash,
		At:     time.Now(),
	})

	if !receipt.Succeeded() {
		attempt.Outcome = types.OutcomeReverted
		return o.failSwap(attempt, setState, types.FailureSubmission, errors.ErrSubmissionFailed)
	}

	attempt.Outcome = types.OutcomeSuccess
	setState(types.SwapCompleted)

	o.logger.WithFields(logrus.Fields{
		"chain":  chain,
		"txHash": txHash,
	}).Info("Swap completed")

	return attempt, nil
}

// ensureAllowance runs CheckingAllowance and, when the current allowance is
// exactly zero, the approval leg of the machine. Any nonzero allowance is
// treated as sufficient; partial top-ups are not supported. The bool result
// reports whether the attempt terminated here.
func (o *Orchestrator) ensureAllowance(
	ctx context.Context,
	client types.ChainClient,
	config *types.ChainConfig,
	quote *types.Quote,
	params SwapParams,
	attempt *types.TransactionAttempt,
	setState StateListener,
) (bool, error) {
	setState(types.SwapCheckingAllowance)

	allowance, err := client.Allowance(ctx, quote.TokenInAddr, params.Owner, config.ApproveProxyAddress)
	if err != nil {
		_, err = o.failSwap(attempt, setState, types.FailureAllowanceRead, pkgerrors.Wrap(errors.ErrAllowanceReadFailed, err.Error()))
		return true, err
	}
	if allowance == nil {
		_, err = o.failSwap(attempt, setState, types.FailureAllowanceRead, errors.ErrAllowanceReadFailed)
		return true, err
	}
	if allowance.Sign() != 0 {
		return false, nil
	}

	setState(types.SwapApproving)
	txHash, err := client.Approve(ctx, quote.TokenInAddr, config.ApproveProxyAddress, maxUint256)
	if err != nil {
		if pkgerrors.Is(err, errors.ErrUserRejected) {
			attempt.Outcome = types.OutcomeRejected
			_, err = o.failSwap(attempt, setState, types.FailureUserRejected, err)
			return true, err
		}
		_, err = o.failSwap(attempt, setState, types.FailureApproval, pkgerrors.Wrap(errors.ErrApprovalFailed, err.Error()))
		return true, err
	}

	setState(types.SwapAwaitingApprovalReceipt)
	receipt, err := client.WaitForReceipt(ctx, txHash)
	if err != nil || !receipt.Succeeded() {
		// A reverted approval aborts the attempt before any swap submission.
		_, err = o.failSwap(attempt, setState, types.FailureApproval, errors.ErrApprovalFailed)
		return true, err
	}

	return false, nil
}

// failSwap moves the attempt to the terminal Failed state.
func (o *Orchestrator) failSwap(
	attempt *types.TransactionAttempt,
	setState StateListener,
	kind types.FailureKind,
	err error,
) (*types.TransactionAttempt, error) {
	attempt.Failure = kind
	if attempt.Outcome == types.OutcomePending {
		if attempt.Receipt != nil {
			attempt.Outcome = types.OutcomeReverted
		} else if kind == types.FailureUserRejected {
			attempt.Outcome = types.OutcomeRejected
		}
	}
	setState(types.SwapFailed)

	o.logger.WithFields(logrus.Fields{
		"chain":   attempt.Chain,
		"failure": kind,
	}).WithError(err).Error("Swap attempt failed")

	return attempt, err
}

// publish delivers an event when a sink is configured.
func (o *Orchestrator) publish(event types.EngineEvent) {
	if o.events != nil {
		o.events.Publish(event)
	}
}

// snapshotQuote extracts the executable quote from a confirmed snapshot.
func snapshotQuote(snapshot *session.Snapshot) (*types.Quote, error) {
	if snapshot == nil || snapshot.Candidate == nil {
		return nil, errors.ErrNoQuoteSelected
	}
	switch candidate := snapshot.Candidate.(type) {
	case *types.Quote:
		return candidate, nil
	case *types.Route:
		return candidate.Legs[0].Quote, nil
	default:
		return nil, errors.ErrNoQuoteSelected
	}
}

// buildSwapPayload prepares the quote's embedded transaction for the
// wallet. The provider sends value as a decimal string; wallets expect the
// hex quantity encoding, so it is re-encoded here. The provider's gas limit
// is dropped and left for the wallet to estimate.
func buildSwapPayload(quote *types.Quote) (*types.SwapTransaction, error) {
	if quote == nil || quote.Transaction.To == "" {
		return nil, pkgerrors.Wrap(errors.ErrSubmissionFailed, "quote carries no transaction payload")
	}

	value := quote.Transaction.Value
	if value == "" {
		value = "0"
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		// Already hex encoded; pass through untouched.
		if strings.HasPrefix(value, "0x") {
			parsed, ok = new(big.Int).SetString(strings.TrimPrefix(value, "0x"), 16)
		}
		if !ok {
			return nil, pkgerrors.Wrapf(errors.ErrSubmissionFailed, "unparsable transaction value %q", value)
		}
	}

	return &types.SwapTransaction{
		From:  quote.Transaction.From,
		To:    quote.Transaction.To,
		Data:  quote.Transaction.Data,
		Value: hexutil.EncodeBig(parsed),
	}, nil
}
