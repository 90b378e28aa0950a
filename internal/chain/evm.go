package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EVMClient is a minimal JSON-RPC client for EVM chains. It implements Reader.
type EVMClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

// NewEVMClient creates a new EVM JSON-RPC client pointed at url.
func NewEVMClient(url string) *EVMClient {
	return &EVMClient{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// URL returns the endpoint this client talks to.
func (c *EVMClient) URL() string {
	return c.url
}

// ChainID returns the chain's ID.
func (c *EVMClient) ChainID(ctx context.Context) (int64, error) {
	var id hexutil.Big
	if err := c.callInto(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return id.ToInt().Int64(), nil
}

// BlockNumber returns the latest block number.
func (c *EVMClient) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.callInto(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// Ping measures the round trip of eth_blockNumber.
func (c *EVMClient) Ping(ctx context.Context) (time.Duration, uint64, error) {
	start := time.Now()
	n, err := c.BlockNumber(ctx)
	return time.Since(start), n, err
}

// CallContract executes a read-only call against the latest block.
func (c *EVMClient) CallContract(ctx context.Context, msg CallMsg) ([]byte, error) {
	params := map[string]string{
		"to":   msg.To.Hex(),
		"data": hexutil.Encode(msg.Data),
	}
	if msg.From != (common.Address{}) {
		params["from"] = msg.From.Hex()
	}
	var out hexutil.Bytes
	if err := c.callInto(ctx, &out, "eth_call", params, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// EstimateGas estimates gas for a transaction.
func (c *EVMClient) EstimateGas(ctx context.Context, req TxRequest) (uint64, error) {
	params := map[string]string{
		"from": req.From.Hex(),
		"to":   req.To.Hex(),
	}
	if len(req.Data) > 0 {
		params["data"] = hexutil.Encode(req.Data)
	}
	if req.Value != nil && req.Value.Sign() > 0 {
		params["value"] = hexutil.EncodeBig(req.Value)
	}
	var gas hexutil.Uint64
	if err := c.callInto(ctx, &gas, "eth_estimateGas", params, "latest"); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

// GasPrice returns the current gas price.
func (c *EVMClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var gp hexutil.Big
	if err := c.callInto(ctx, &gp, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return gp.ToInt(), nil
}

// PendingNonce returns the transaction count including queued transactions.
func (c *EVMClient) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var n hexutil.Uint64
	if err := c.callInto(ctx, &n, "eth_getTransactionCount", addr.Hex(), "pending"); err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// SendRawTransaction broadcasts a signed raw transaction.
func (c *EVMClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.callInto(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// TransactionReceipt fetches the receipt for hash.
// Returns nil, nil if the transaction is still pending.
func (c *EVMClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	raw, err := c.Request(ctx, "eth_getTransactionReceipt", hash.Hex())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil // still pending
	}

	var r struct {
		Status            *hexutil.Uint64 `json:"status"`
		BlockNumber       *hexutil.Uint64 `json:"blockNumber"`
		GasUsed           *hexutil.Uint64 `json:"gasUsed"`
		EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
		ContractAddress   *string         `json:"contractAddress"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}

	receipt := &Receipt{TxHash: hash}
	if r.Status != nil {
		receipt.Status = uint64(*r.Status)
	}
	if r.BlockNumber != nil {
		receipt.BlockNumber = uint64(*r.BlockNumber)
	}
	if r.GasUsed != nil {
		receipt.GasUsed = uint64(*r.GasUsed)
	}
	if r.EffectiveGasPrice != nil {
		receipt.EffectiveGasPrice = r.EffectiveGasPrice.ToInt()
	}
	if r.ContractAddress != nil {
		receipt.ContractAddress = *r.ContractAddress
	}
	return receipt, nil
}

// Request issues a raw JSON-RPC call and returns the undecoded result.
func (c *EVMClient) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}
	return rpcResp.Result, nil
}

// --- internal JSON-RPC plumbing ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *EVMClient) callInto(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Request(ctx, method, params...)
	if err != nil {
		return err
	}
	if isNull(raw) {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parsing %s result: %w", method, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
