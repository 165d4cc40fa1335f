package types

import "time"

// EventType identifies an engine event delivered to external observers.
type EventType string

const (
	// EventBalanceRefresh asks observers to re-read wallet balances after a
	// confirmed transaction. Never emitted for user-rejected attempts.
	EventBalanceRefresh EventType = "BALANCE_REFRESH"
	// EventSwapStateChange reports a swap state machine transition.
	EventSwapStateChange EventType = "SWAP_STATE_CHANGE"
	// EventDepositStateChange reports a deposit state machine transition.
	EventDepositStateChange EventType = "DEPOSIT_STATE_CHANGE"
)

// EngineEvent is a notification surfaced to embedders.
type EngineEvent struct {
	Type         EventType
	Chain        Chain
	TxHash       string
	SwapState    SwapState
	DepositState DepositState
	At           time.Time
}

// EventSink receives engine events. Implementations must not block; slow
// consumers should buffer on their side.
type EventSink interface {
	Publish(event EngineEvent)
}

// EventChan adapts a channel to EventSink with a non-blocking send.
type EventChan chan EngineEvent

// Publish sends the event, dropping it if the channel is full.
func (c EventChan) Publish(event EngineEvent) {
	select {
	case c <- event:
	default:
	}
}
