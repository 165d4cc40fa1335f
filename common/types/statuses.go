package types

// SwapState is the state of a single-chain swap attempt.
type SwapState string

const (
	// SwapIdle is the initial state before an attempt starts.
	SwapIdle SwapState = "IDLE"
	// SwapCheckingAllowance reads the current allowance for a non-native input token.
	SwapCheckingAllowance SwapState = "CHECKING_ALLOWANCE"
	// SwapApproving submits an unlimited approval for the routing proxy.
	SwapApproving SwapState = "APPROVING"
	// SwapAwaitingApprovalReceipt waits for the approval to confirm.
	SwapAwaitingApprovalReceipt SwapState = "AWAITING_APPROVAL_RECEIPT"
	// SwapSubmittingSwap submits the quote's prebuilt swap payload.
	SwapSubmittingSwap SwapState = "SUBMITTING_SWAP"
	// SwapAwaitingSwapReceipt waits for the swap to confirm.
	SwapAwaitingSwapReceipt SwapState = "AWAITING_SWAP_RECEIPT"
	// SwapCompleted is the terminal success state.
	SwapCompleted SwapState = "COMPLETED"
	// SwapFailed is the terminal failure state; see FailureKind for the cause.
	SwapFailed SwapState = "FAILED"
)

// DepositState is the state of a cross-chain bridge-deposit attempt.
type DepositState string

const (
	// DepositIdle is the initial state before an attempt starts.
	DepositIdle DepositState = "IDLE"
	// DepositResolvingDenom looks up the destination token's bridge denom.
	DepositResolvingDenom DepositState = "RESOLVING_DESTINATION_DENOM"
	// DepositResolvingAddress requests a one-time deposit address from the bridge.
	DepositResolvingAddress DepositState = "RESOLVING_DEPOSIT_ADDRESS"
	// DepositSubmitting sends the value transfer to the deposit address.
	DepositSubmitting DepositState = "SUBMITTING_DEPOSIT"
	// DepositAwaitingReceipt waits for the deposit to confirm on the source chain.
	DepositAwaitingReceipt DepositState = "AWAITING_DEPOSIT_RECEIPT"
	// DepositCompleted means the deposit confirmed on the source chain.
	// Destination delivery is performed by the bridge network out of band and
	// is not tracked here.
	DepositCompleted DepositState = "COMPLETED"
	// DepositFailed is the terminal failure state.
	DepositFailed DepositState = "FAILED"
)

// FailureKind identifies the cause of a terminal Failed state. Callers rely
// on the distinction to render specific notices; kinds must not be collapsed.
type FailureKind string

const (
	// FailureNone means the attempt did not fail.
	FailureNone FailureKind = ""
	// FailureAllowanceRead means the allowance read errored before approval.
	FailureAllowanceRead FailureKind = "ALLOWANCE_READ_FAILED"
	// FailureApproval means the approval transaction reverted.
	FailureApproval FailureKind = "APPROVAL_FAILED"
	// FailureUserRejected means the user declined to sign.
	FailureUserRejected FailureKind = "USER_REJECTED"
	// FailureSubmission means the swap or deposit reverted or was dropped.
	FailureSubmission FailureKind = "SUBMISSION_FAILED"
	// FailureDenomNotFound means the bridge had no denom for the destination token.
	FailureDenomNotFound FailureKind = "DENOM_NOT_FOUND"
	// FailureDepositAddress means the bridge returned no deposit address.
	FailureDepositAddress FailureKind = "DEPOSIT_ADDRESS_RESOLUTION_FAILED"
)
