// Package chaintest provides an in-memory wallet-connected chain for tests.
//
// A Chain answers eth_call by ABI method name, records submitted transactions
// and serves receipts for them, optionally after a number of pending polls.
package chaintest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrNoResult is returned for calls to a method with no scripted result.
var ErrNoResult = errors.New("chaintest: no result scripted")

// CallFunc computes the outputs of a contract call from its decoded inputs.
type CallFunc func(args []any) ([]any, error)

// RequestFunc overrides the handling of a raw JSON-RPC method.
type RequestFunc func(params []any) (json.RawMessage, error)

type receiptScript struct {
	pending int
	err     error
	receipt *chain.Receipt
}

// Chain is a fake chain.Provider with an accounts-changed hook.
type Chain struct {
	abi abi.ABI

	mu        sync.Mutex
	chainID   int64
	known     map[int64]bool
	accounts  []common.Address
	handlers  map[string]CallFunc
	calls     map[string]int
	requests  []string
	overrides map[string]RequestFunc
	sent      []chain.TxRequest
	sendErr   error
	pending   int
	pollErr   error
	receipts  map[common.Hash]*receiptScript
	listeners map[int]func()
	nextID    int
}

// New creates a chain with the given id whose contract speaks parsed.
func New(chainID int64, parsed abi.ABI) *Chain {
	return &Chain{
		abi:       parsed,
		chainID:   chainID,
		known:     map[int64]bool{chainID: true},
		handlers:  make(map[string]CallFunc),
		calls:     make(map[string]int),
		overrides: make(map[string]RequestFunc),
		receipts:  make(map[common.Hash]*receiptScript),
		listeners: make(map[int]func()),
	}
}

// Return scripts a fixed result for method.
func (c *Chain) Return(method string, values ...any) *Chain {
	return c.Handle(method, func([]any) ([]any, error) { return values, nil })
}

// Fail makes every call to method fail with err.
func (c *Chain) Fail(method string, err error) *Chain {
	return c.Handle(method, func([]any) ([]any, error) { return nil, err })
}

// Handle scripts method with fn.
func (c *Chain) Handle(method string, fn CallFunc) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = fn
	return c
}

// Calls returns how often method was called.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// SetAccounts replaces the account list without notifying listeners.
func (c *Chain) SetAccounts(addrs ...common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = append([]common.Address(nil), addrs...)
}

// ChangeAccounts replaces the account list and notifies listeners, like a
// wallet whose user switched accounts.
func (c *Chain) ChangeAccounts(addrs ...common.Address) {
	c.SetAccounts(addrs...)
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Listeners returns the number of registered accounts-changed listeners.
func (c *Chain) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// SetWalletChain sets the chain the wallet is currently on.
func (c *Chain) SetWalletChain(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = id
}

// Know makes the wallet aware of chain ids, so switching to them succeeds.
func (c *Chain) Know(ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.known[id] = true
	}
}

// Forget makes the wallet unaware of chain id, so switching to it fails
// with 4902 until it is added.
func (c *Chain) Forget(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.known, id)
}

// OnRequest overrides the handling of a raw JSON-RPC method.
func (c *Chain) OnRequest(method string, fn RequestFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[method] = fn
}

// Requests returns the raw JSON-RPC methods requested so far.
func (c *Chain) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

// FailSend makes every SendTransaction fail with err.
func (c *Chain) FailSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// Sent returns the submitted transaction envelopes.
func (c *Chain) Sent() []chain.TxRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chain.TxRequest(nil), c.sent...)
}

// PendingPolls makes receipts of later submissions report pending n times.
func (c *Chain) PendingPolls(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = n
}

// FailReceipts makes receipt queries of later submissions fail with err.
func (c *Chain) FailReceipts(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollErr = err
}

// --- chain.Provider ---

func (c *Chain) ChainID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainID, nil
}

func (c *Chain) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("chaintest: calldata too short")
	}
	method, err := c.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, fmt.Errorf("chaintest: %w", err)
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("chaintest: decoding %s args: %w", method.RawName, err)
	}

	c.mu.Lock()
	c.calls[method.RawName]++
	fn := c.handlers[method.RawName]
	c.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoResult, method.RawName)
	}
	values, err := fn(args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(values...)
}

func (c *Chain) TransactionReceipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, "eth_getTransactionReceipt")
	s, ok := c.receipts[hash]
	if !ok {
		return nil, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.pending > 0 {
		s.pending--
		return nil, nil
	}
	r := *s.receipt
	return &r, nil
}

func (c *Chain) Accounts(ctx context.Context) ([]common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]common.Address(nil), c.accounts...), nil
}

func (c *Chain) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, "eth_sendTransaction")
	if c.sendErr != nil {
		return common.Hash{}, c.sendErr
	}
	c.sent = append(c.sent, req)
	n := len(c.sent)
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", n)))
	c.receipts[hash] = &receiptScript{
		pending: c.pending,
		err:     c.pollErr,
		receipt: &chain.Receipt{
			TxHash:            hash,
			Status:            1,
			BlockNumber:       uint64(100 + n),
			GasUsed:           21000,
			EffectiveGasPrice: big.NewInt(1_000_000_000),
		},
	}
	return hash, nil
}

func (c *Chain) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	c.mu.Lock()
	c.requests = append(c.requests, method)
	override := c.overrides[method]
	c.mu.Unlock()
	if override != nil {
		return override(params)
	}

	switch method {
	case "eth_chainId":
		id, _ := c.ChainID(ctx)
		return json.Marshal(chain.HexChainID(id))
	case "eth_accounts", "eth_requestAccounts":
		accts, _ := c.Accounts(ctx)
		return json.Marshal(accts)
	case "wallet_switchEthereumChain":
		id, err := chainIDParam(params)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.known[id] {
			return nil, &chain.RPCError{Code: chain.CodeUnrecognizedChain, Message: "Unrecognized chain ID"}
		}
		c.chainID = id
		return json.RawMessage("null"), nil
	case "wallet_addEthereumChain":
		id, err := chainIDParam(params)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.known[id] = true
		return json.RawMessage("null"), nil
	}
	return nil, &chain.RPCError{Code: -32601, Message: "the method " + method + " does not exist/is not available"}
}

// OnAccountsChanged registers fn and returns a function that removes it.
func (c *Chain) OnAccountsChanged(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func chainIDParam(params []any) (int64, error) {
	if len(params) == 0 {
		return 0, &chain.RPCError{Code: -32602, Message: "missing params"}
	}
	raw, err := json.Marshal(params[0])
	if err != nil {
		return 0, err
	}
	var p struct {
		ChainID string `json:"chainId"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, &chain.RPCError{Code: -32602, Message: err.Error()}
	}
	id, err := hexutil.DecodeBig(p.ChainID)
	if err != nil {
		return 0, &chain.RPCError{Code: -32602, Message: err.Error()}
	}
	return id.Int64(), nil
}
