package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller calls read-only (view/pure) functions of one contract.
type Caller struct {
	reader  chain.Reader
	abi     abi.ABI
	address common.Address
}

// NewCaller creates a Caller for the contract at address.
func NewCaller(reader chain.Reader, address common.Address, parsed abi.ABI) *Caller {
	return &Caller{reader: reader, abi: parsed, address: address}
}

// Address returns the contract address.
func (c *Caller) Address() common.Address { return c.address }

// Call calls a read function and returns its decoded outputs.
func (c *Caller) Call(ctx context.Context, funcName string, args ...any) ([]any, error) {
	fn, err := lookup(c.abi, funcName)
	if err != nil {
		return nil, err
	}
	if !isRead(fn) {
		return nil, fmt.Errorf("function %q is not a read function (stateMutability: %s)", funcName, fn.StateMutability)
	}

	calldata, err := c.abi.Pack(fn.Name, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	result, err := c.reader.CallContract(ctx, chain.CallMsg{To: c.address, Data: calldata})
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	decoded, err := c.abi.Unpack(fn.Name, result)
	if err != nil {
		return nil, fmt.Errorf("decoding result of %s: %w", funcName, err)
	}
	return decoded, nil
}

// Uint calls a function returning a single unsigned integer.
func (c *Caller) Uint(ctx context.Context, funcName string, args ...any) (*big.Int, error) {
	out, err := c.Call(ctx, funcName, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", funcName)
	}
	n, ok := toBig(out[0])
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want an integer", funcName, out[0])
	}
	return n, nil
}

// Bool calls a function returning a single bool.
func (c *Caller) Bool(ctx context.Context, funcName string, args ...any) (bool, error) {
	out, err := c.Call(ctx, funcName, args...)
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, fmt.Errorf("%s returned no values", funcName)
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s returned %T, want bool", funcName, out[0])
	}
	return b, nil
}

func lookup(parsed abi.ABI, name string) (abi.Method, error) {
	if m, ok := parsed.Methods[name]; ok {
		return m, nil
	}
	for _, m := range parsed.Methods {
		if m.RawName == name {
			return m, nil
		}
	}
	return abi.Method{}, fmt.Errorf("%w: %q", ErrFunctionNotFound, name)
}

func toBig(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), true
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	}
	return nil, false
}
