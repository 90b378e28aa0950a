package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// JSON-RPC error codes wallets use for chain management (EIP-1193 / EIP-3085).
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// CallMsg is a read-only contract call.
type CallMsg struct {
	From common.Address
	To   common.Address
	Data []byte
}

// TxRequest is the envelope for a state-changing call submitted through a wallet.
// Gas == 0 asks the wallet to estimate it.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
	Gas   uint64
}

// Receipt holds the on-chain receipt of a mined transaction.
type Receipt struct {
	TxHash            common.Hash
	Status            uint64 // 1 = success, 0 = reverted
	BlockNumber       uint64
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	ContractAddress   string
}

// Reverted reports whether the transaction was mined but reverted.
func (r *Receipt) Reverted() bool {
	return r != nil && r.Status == 0
}

// Reader is the read-only surface of a chain client.
type Reader interface {
	ChainID(ctx context.Context) (int64, error)
	CallContract(ctx context.Context, msg CallMsg) ([]byte, error)
	// TransactionReceipt returns nil, nil while the transaction is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// Provider is the full chain client surface a connected wallet exposes.
type Provider interface {
	Reader
	Accounts(ctx context.Context) ([]common.Address, error)
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	// Request issues a raw JSON-RPC call (wallet_switchEthereumChain etc.).
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// RPCError is a JSON-RPC error object returned by a node or a wallet.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// ErrorCode extracts the JSON-RPC code from err, or 0 if err carries none.
func ErrorCode(err error) int {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Code
	}
	return 0
}
