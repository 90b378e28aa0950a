package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// JSON-RPC error codes the provider returns (EIP-1193).
const (
	codeUnauthorized  = 4100
	codeInvalidParams = -32602
)

// ErrNoEndpoint is returned when the provider has no RPC URL for a chain.
var ErrNoEndpoint = errors.New("no RPC endpoint for chain")

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	ChainID   int64              // chain the wallet starts on
	Endpoints map[int64][]string // RPC URLs per chain; first is used
	Logger    *zap.Logger
}

// Provider is a local wallet exposed the way a browser wallet exposes itself:
// an ordered account list (first is current), a wallet-side chain selection
// that can be switched or extended, and transaction signing.
type Provider struct {
	ks     KeystoreBackend
	logger *zap.Logger

	mu        sync.Mutex
	wallets   []*Wallet
	chainID   int64
	endpoints map[int64][]string
	clients   map[int64]*chain.EVMClient
	listeners map[int]func()
	nextID    int
}

// NewProvider exposes wallets (first is current) signing with keys from ks.
func NewProvider(wallets []*Wallet, ks KeystoreBackend, cfg ProviderConfig) *Provider {
	endpoints := make(map[int64][]string, len(cfg.Endpoints))
	for id, urls := range cfg.Endpoints {
		if len(urls) > 0 {
			endpoints[id] = append([]string(nil), urls...)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		ks:        ks,
		logger:    logger,
		wallets:   append([]*Wallet(nil), wallets...),
		chainID:   cfg.ChainID,
		endpoints: endpoints,
		clients:   make(map[int64]*chain.EVMClient),
		listeners: make(map[int]func()),
	}
}

// RegistryEndpoints collects the RPC URLs of every registry chain, with
// custom URLs taking precedence.
func RegistryEndpoints(reg *chain.Registry, custom map[int64][]string) map[int64][]string {
	out := make(map[int64][]string)
	for _, c := range reg.All() {
		out[c.ChainID] = append([]string(nil), c.RPCURLs...)
	}
	for id, urls := range custom {
		if len(urls) > 0 {
			out[id] = append(append([]string(nil), urls...), out[id]...)
		}
	}
	return out
}

// Accounts returns the wallet addresses, current first.
func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]common.Address, len(p.wallets))
	for i, w := range p.wallets {
		out[i] = w.Addr()
	}
	return out, nil
}

// SelectAccount makes the named wallet current and notifies listeners.
func (p *Provider) SelectAccount(name string) error {
	p.mu.Lock()
	idx := -1
	for i, w := range p.wallets {
		if w.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWalletNotFound, name)
	}
	if idx == 0 {
		p.mu.Unlock()
		return nil
	}
	w := p.wallets[idx]
	reordered := append([]*Wallet{w}, p.wallets[:idx]...)
	p.wallets = append(reordered, p.wallets[idx+1:]...)
	fns := p.listenerSnapshot()
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// OnAccountsChanged registers fn and returns a function that removes it.
func (p *Provider) OnAccountsChanged(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// ChainID returns the chain the wallet is on. It does not ask the node.
func (p *Provider) ChainID(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

// CallContract runs eth_call on the current chain.
func (p *Provider) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	c, err := p.client()
	if err != nil {
		return nil, err
	}
	return c.CallContract(ctx, msg)
}

// TransactionReceipt reads a receipt on the current chain.
func (p *Provider) TransactionReceipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	c, err := p.client()
	if err != nil {
		return nil, err
	}
	return c.TransactionReceipt(ctx, hash)
}

// SendTransaction signs req with the wallet owning req.From and broadcasts
// it as an EIP-1559 transaction on the current chain.
func (p *Provider) SendTransaction(ctx context.Context, req chain.TxRequest) (common.Hash, error) {
	w := p.walletFor(req.From)
	if w == nil {
		return common.Hash{}, &chain.RPCError{Code: codeUnauthorized, Message: "unknown account " + req.From.Hex()}
	}
	if !w.CanSign() {
		return common.Hash{}, &chain.RPCError{Code: codeUnauthorized, Message: fmt.Sprintf("%s: %s", ErrWatchOnly, w.Name)}
	}

	c, err := p.client()
	if err != nil {
		return common.Hash{}, err
	}
	chainID, _ := p.ChainID(ctx)

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gas := req.Gas
	if gas == 0 {
		gas, err = c.EstimateGas(ctx, req)
		if err != nil {
			return common.Hash{}, fmt.Errorf("estimating gas: %w", err)
		}
	}

	gasPrice, err := c.GasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := c.PendingNonce(ctx, req.From)
	if err != nil {
		return common.Hash{}, fmt.Errorf("getting nonce: %w", err)
	}

	to := req.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})

	raw, err := NewSigner(w, p.ks).SignTx(tx, big.NewInt(chainID))
	if err != nil {
		return common.Hash{}, err
	}

	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("broadcasting transaction: %w", err)
	}
	p.logger.Info("transaction broadcast",
		zap.String("hash", hash.Hex()),
		zap.String("from", req.From.Hex()),
		zap.Int64("chain_id", chainID),
		zap.Uint64("nonce", nonce))
	return hash, nil
}

// Request handles wallet methods locally and forwards everything else to
// the node of the current chain.
func (p *Provider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case "eth_chainId":
		id, _ := p.ChainID(ctx)
		return json.Marshal(chain.HexChainID(id))

	case "eth_accounts", "eth_requestAccounts":
		accts, _ := p.Accounts(ctx)
		return json.Marshal(accts)

	case "wallet_switchEthereumChain":
		var sp chain.SwitchChainParams
		if err := decodeParam(params, &sp); err != nil {
			return nil, err
		}
		id, err := parseChainID(sp.ChainID)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.endpoints[id]) == 0 {
			return nil, &chain.RPCError{Code: chain.CodeUnrecognizedChain, Message: fmt.Sprintf("Unrecognized chain ID %q", sp.ChainID)}
		}
		p.chainID = id
		return json.RawMessage("null"), nil

	case "wallet_addEthereumChain":
		var ap chain.AddChainParams
		if err := decodeParam(params, &ap); err != nil {
			return nil, err
		}
		id, err := parseChainID(ap.ChainID)
		if err != nil {
			return nil, err
		}
		if len(ap.RPCURLs) == 0 {
			return nil, &chain.RPCError{Code: codeInvalidParams, Message: "rpcUrls is empty"}
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.endpoints[id]) == 0 {
			p.endpoints[id] = append([]string(nil), ap.RPCURLs...)
		}
		return json.RawMessage("null"), nil

	case "personal_sign":
		return p.personalSign(params)
	}

	c, err := p.client()
	if err != nil {
		return nil, err
	}
	return c.Request(ctx, method, params...)
}

// personal_sign params are [data, address]; data is 0x-hex or plain text.
func (p *Provider) personalSign(params []any) (json.RawMessage, error) {
	if len(params) < 2 {
		return nil, &chain.RPCError{Code: codeInvalidParams, Message: "personal_sign expects [data, address]"}
	}
	data, _ := params[0].(string)
	addr, _ := params[1].(string)
	if !common.IsHexAddress(addr) {
		return nil, &chain.RPCError{Code: codeInvalidParams, Message: "invalid address " + addr}
	}

	msg := []byte(data)
	if strings.HasPrefix(data, "0x") {
		if b, err := hexutil.Decode(data); err == nil {
			msg = b
		}
	}

	w := p.walletFor(common.HexToAddress(addr))
	if w == nil {
		return nil, &chain.RPCError{Code: codeUnauthorized, Message: "unknown account " + addr}
	}
	sig, err := NewSigner(w, p.ks).SignMessage(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(hexutil.Encode(sig))
}

func (p *Provider) walletFor(addr common.Address) *Wallet {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, w := range p.wallets {
		if w.Addr() == addr {
			return w
		}
	}
	return nil
}

func (p *Provider) client() (*chain.EVMClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[p.chainID]; ok {
		return c, nil
	}
	urls := p.endpoints[p.chainID]
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w %d", ErrNoEndpoint, p.chainID)
	}
	c := chain.NewEVMClient(urls[0])
	p.clients[p.chainID] = c
	return c, nil
}

// listenerSnapshot must be called with p.mu held.
func (p *Provider) listenerSnapshot() []func() {
	fns := make([]func(), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func decodeParam(params []any, out any) error {
	if len(params) == 0 {
		return &chain.RPCError{Code: codeInvalidParams, Message: "missing params"}
	}
	raw, err := json.Marshal(params[0])
	if err != nil {
		return &chain.RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &chain.RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	return nil
}

func parseChainID(hex string) (int64, error) {
	id, err := hexutil.DecodeBig(hex)
	if err != nil || !id.IsInt64() {
		return 0, &chain.RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid chainId %q", hex)}
	}
	return id.Int64(), nil
}
