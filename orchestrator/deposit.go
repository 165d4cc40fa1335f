package orchestrator

import (
	"context"
	"time"

	"github.com/Azurepeal/matrixswap-lib/amount"
	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BridgeResolver resolves the destination denom and one-time deposit
// address from the bridge network's API. bridge.Client satisfies it.
type BridgeResolver interface {
	ResolveDenom(ctx context.Context, symbol string, destinationChain types.Chain) (string, error)
	ResolveDepositAddress(ctx context.Context, sourceChain, destinationChain types.Chain, destinationTokenAddress, denom string) (string, error)
}

// DepositParams describes one bridge-deposit attempt.
//
// Fields:
// - SourceChain, DestinationChain: the transfer endpoints.
// - Token: the bridgeable asset being deposited; its symbol drives denom
//   resolution and its decimals scale the raw amount.
// - DestinationTokenAddress: the delivered token's address on the
//   destination chain.
// - RawAmount: the user-entered amount, scaled by Token.Decimals.
// - Owner: the user's wallet address on the source chain.
// - Listener: optional state transition observer.
type DepositParams struct {
	SourceChain             types.Chain
	DestinationChain        types.Chain
	Token                   types.Token
	DestinationTokenAddress string
	RawAmount               string
	Owner                   string
	Listener                DepositStateListener
}

// ExecuteDeposit runs the bridge-deposit state machine to a terminal state:
// resolve the destination denom, resolve a deposit address, transfer the
// amount to it on the source chain and wait for the source-chain receipt.
// Completion means the source chain confirmed the deposit; delivery on the
// destination chain happens out of band and is the bridge network's
// responsibility.
func (o *Orchestrator) ExecuteDeposit(ctx context.Context, resolver BridgeResolver, params DepositParams) (*types.TransactionAttempt, error) {
	client := o.registry.Get(params.SourceChain)
	if client == nil {
		return nil, pkgerrors.Wrapf(errors.ErrChainNotFound, "chain %s", params.SourceChain)
	}

	attempt := &types.TransactionAttempt{
		Kind:    types.AttemptBridgeDeposit,
		Chain:   params.SourceChain,
		Outcome: types.OutcomePending,
	}

	setState := func(state types.DepositState) {
		if params.Listener != nil {
			params.Listener(state)
		}
		o.publish(types.EngineEvent{
			Type:         types.EventDepositStateChange,
			Chain:        params.SourceChain,
			DepositState: state,
			At:           time.Now(),
		})
	}
	setState(types.DepositIdle)

	value, err := amount.Normalize(params.RawAmount, params.Token.Decimals)
	if err != nil || value.Sign() == 0 {
		return o.failDeposit(attempt, setState, types.FailureSubmission, pkgerrors.Wrapf(errors.ErrInvalidAmount, "deposit amount %q", params.RawAmount))
	}

	setState(types.DepositResolvingDenom)
	denom, err := resolver.ResolveDenom(ctx, params.Token.Symbol, params.DestinationChain)
	if err != nil {
		return o.failDeposit(attempt, setState, types.FailureDenomNotFound, err)
	}

	setState(types.DepositResolvingAddress)
	depositAddress, err := resolver.ResolveDepositAddress(ctx, params.SourceChain, params.DestinationChain, params.DestinationTokenAddress, denom)
	if err != nil {
		return o.failDeposit(attempt, setState, types.FailureDepositAddress, err)
	}

	if err := client.SwitchChain(ctx, params.SourceChain); err != nil {
		return o.failDeposit(attempt, setState, types.FailureSubmission, err)
	}

	setState(types.DepositSubmitting)
	payload := &types.SwapTransaction{
		From:  params.Owner,
		To:    depositAddress,
		Value: hexutil.EncodeBig(value),
	}
	attempt.Payload = payload

	txHash, err := client.SendTransaction(ctx, payload)
	if err != nil {
		if pkgerrors.Is(err, errors.ErrUserRejected) {
			attempt.Outcome = types.OutcomeRejected
			return o.failDeposit(attempt, setState, types.FailureUserRejected, err)
		}
		return o.failDeposit(attempt, setState, types.FailureSubmission, err)
	}
	attempt.SubmittedHash = txHash

	setState(types.DepositAwaitingReceipt)
	receipt, err := client.WaitForReceipt(ctx, txHash)
	if err != nil || receipt == nil {
		return o.failDeposit(attempt, setState, types.FailureSubmission, pkgerrors.Wrap(errors.ErrSubmissionFailed, "deposit receipt wait failed"))
	}
	attempt.Receipt = receipt

	o.publish(types.EngineEvent{
		Type:   types.EventBalanceRefresh,
		Chain:  params.SourceChain,
		TxHash: txHash,
		At:     time.Now(),
	})

	if !receipt.Succeeded() {
		attempt.Outcome = types.OutcomeReverted
		return o.failDeposit(attempt, setState, types.FailureSubmission, errors.ErrSubmissionFailed)
	}

	attempt.Outcome = types.OutcomeSuccess
	setState(types.DepositCompleted)

	o.logger.WithFields(logrus.Fields{
		"fromChain": params.SourceChain,
		"toChain":   params.DestinationChain,
		"denom":     denom,
		"txHash":    txHash,
	}).Info("Bridge deposit confirmed on source chain")

	return attempt, nil
}

// failDeposit moves the attempt to the terminal Failed state.
func (o *Orchestrator) failDeposit(
	attempt *types.TransactionAttempt,
	setState DepositStateListener,
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
	setState(types.DepositFailed)

	o.logger.WithFields(logrus.Fields{
		"chain":   attempt.Chain,
		"failure": kind,
	}).WithError(err).Error("Deposit attempt failed")

	return attempt, err
}
