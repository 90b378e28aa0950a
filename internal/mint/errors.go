package mint

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/sale"
)

var (
	// ErrNotReady is returned by operations that need project metadata
	// before LoadMetadata succeeded.
	ErrNotReady = errors.New("project metadata not loaded")
	// ErrInvalidQuantity is returned for a mint quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrNotConnected is returned when minting without a connected wallet.
	ErrNotConnected = errors.New("no wallet connected")
	// ErrMintInProgress is returned when a mint is already running on the Core.
	ErrMintInProgress = errors.New("a mint is already in progress")
)

// Rejection is returned when the sale state does not allow the mint. The
// matching Error event has already been emitted.
type Rejection struct {
	Type     events.ErrorType
	Snapshot sale.Snapshot
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("mint rejected (%s): %s", r.Type, r.Type.Message())
}

// RejectionType returns the error type of a Rejection in err's chain.
func RejectionType(err error) (events.ErrorType, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Type, true
	}
	return "", false
}
