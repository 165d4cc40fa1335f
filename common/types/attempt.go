package types

// AttemptKind identifies what a transaction attempt submits.
type AttemptKind string

const (
	// AttemptApproval is an ERC-20 approval transaction.
	AttemptApproval AttemptKind = "APPROVAL"
	// AttemptSwap is a routing-proxy swap call.
	AttemptSwap AttemptKind = "SWAP"
	// AttemptBridgeDeposit is a plain value transfer to a bridge deposit address.
	AttemptBridgeDeposit AttemptKind = "BRIDGE_DEPOSIT"
)

// AttemptOutcome is the result of a transaction attempt.
type AttemptOutcome string

const (
	// OutcomePending means the attempt has not reached a terminal state.
	OutcomePending AttemptOutcome = "PENDING"
	// OutcomeSuccess means the transaction confirmed successfully.
	OutcomeSuccess AttemptOutcome = "SUCCESS"
	// OutcomeReverted means the transaction was mined but reverted.
	OutcomeReverted AttemptOutcome = "REVERTED"
	// OutcomeRejected means signing was declined before submission.
	OutcomeRejected AttemptOutcome = "REJECTED"
)

// TransactionAttempt records one submission through the orchestrator.
type TransactionAttempt struct {
	Kind          AttemptKind
	Chain         Chain
	Payload       *SwapTransaction
	SubmittedHash string
	Receipt       *Receipt
	Outcome       AttemptOutcome
	Failure       FailureKind
}
