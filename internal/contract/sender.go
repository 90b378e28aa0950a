package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrNotPayable is returned when value is attached to a non-payable function.
var ErrNotPayable = errors.New("function is not payable")

// Submitter hands a transaction envelope to a wallet for signing and broadcast.
type Submitter interface {
	SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error)
}

// Sender sends write transactions to one contract.
type Sender struct {
	submitter Submitter
	abi       abi.ABI
	address   common.Address
}

// NewSender creates a Sender for the contract at address.
func NewSender(submitter Submitter, address common.Address, parsed abi.ABI) *Sender {
	return &Sender{submitter: submitter, abi: parsed, address: address}
}

// Send calls a write function from `from`, attaching value (nil for none).
// Returns the transaction hash once the wallet accepts the submission.
func (s *Sender) Send(ctx context.Context, from common.Address, value *big.Int, funcName string, args ...any) (common.Hash, error) {
	fn, err := lookup(s.abi, funcName)
	if err != nil {
		return common.Hash{}, err
	}
	if !isWrite(fn) {
		return common.Hash{}, fmt.Errorf("function %q is not a write function", funcName)
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !fn.IsPayable() {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrNotPayable, funcName)
	}

	calldata, err := s.abi.Pack(fn.Name, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding call: %w", err)
	}

	return s.submitter.SendTransaction(ctx, chain.TxRequest{
		From:  from,
		To:    s.address,
		Value: value,
		Data:  calldata,
	})
}
