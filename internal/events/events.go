// Package events defines the lifecycle events the mint SDK emits and the bus
// that delivers them to subscribers.
package events

import "github.com/Mohsinsiddi/w3mint/internal/chain"

// Kind identifies one variant of the closed event set.
type Kind string

const (
	KindStateChange          Kind = "STATE_CHANGE"
	KindError                Kind = "ERROR"
	KindTransactionSubmitted Kind = "TRANSACTION_SUBMITTED"
	KindTransactionCompleted Kind = "TRANSACTION_COMPLETED"
	KindWalletConnected      Kind = "WALLET_CONNECTED"
	KindWalletChanged        Kind = "WALLET_CHANGED"
)

// Kinds lists every event kind in declaration order.
var Kinds = []Kind{
	KindStateChange,
	KindError,
	KindTransactionSubmitted,
	KindTransactionCompleted,
	KindWalletConnected,
	KindWalletChanged,
}

// Event is implemented only by the payload types in this package.
type Event interface {
	Kind() Kind
	sealed()
}

// StateChange reports whether project metadata is loaded and the SDK is usable.
type StateChange struct {
	IsReady bool
}

// Error carries a classified failure and the message a UI should show.
type Error struct {
	Type    ErrorType
	Message string
}

// TransactionSubmitted is emitted once the wallet accepted a transaction.
type TransactionSubmitted struct {
	TransactionHash string
}

// TransactionCompleted is emitted once the transaction receipt is available.
type TransactionCompleted struct {
	Receipt *chain.Receipt
}

// WalletConnected is emitted after a wallet session is established.
type WalletConnected struct {
	Address string
}

// WalletChanged is emitted when the wallet reports an account change.
type WalletChanged struct{}

func (StateChange) Kind() Kind          { return KindStateChange }
func (Error) Kind() Kind                { return KindError }
func (TransactionSubmitted) Kind() Kind { return KindTransactionSubmitted }
func (TransactionCompleted) Kind() Kind { return KindTransactionCompleted }
func (WalletConnected) Kind() Kind      { return KindWalletConnected }
func (WalletChanged) Kind() Kind        { return KindWalletChanged }

func (StateChange) sealed()          {}
func (Error) sealed()                {}
func (TransactionSubmitted) sealed() {}
func (TransactionCompleted) sealed() {}
func (WalletConnected) sealed()      {}
func (WalletChanged) sealed()        {}
