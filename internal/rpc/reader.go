package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Selector hands out chain readers over a set of endpoints per chain ID.
type Selector struct {
	endpoints map[int64][]string
	algo      Algorithm
	logger    *zap.Logger
}

// NewSelector creates a Selector. endpoints lists the URLs of each chain in
// preference order.
func NewSelector(endpoints map[int64][]string, algo Algorithm, logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{endpoints: endpoints, algo: algo, logger: logger}
}

// Reader returns a chain.Reader for chainID. No endpoint is contacted until
// the first call.
func (s *Selector) Reader(chainID int64) (chain.Reader, error) {
	urls := s.endpoints[chainID]
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: %d", chain.ErrChainNotFound, chainID)
	}
	return &Reader{
		urls:    urls,
		chainID: chainID,
		picker:  NewPicker(s.algo),
		logger:  s.logger.With(zap.Int64("chain_id", chainID)),
	}, nil
}

// Reader is a chain.Reader that picks its endpoint on first use. When a call
// fails below the JSON-RPC layer the endpoint is dropped and the next call
// picks again.
type Reader struct {
	urls    []string
	chainID int64
	picker  *Picker
	logger  *zap.Logger

	mu     sync.Mutex
	client *chain.EVMClient
}

var _ chain.Reader = (*Reader)(nil)

func (r *Reader) get(ctx context.Context) (*chain.EVMClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client != nil {
		return r.client, nil
	}
	url, err := Best(ctx, r.urls, r.chainID, r.picker)
	if err != nil {
		return nil, fmt.Errorf("chain %d: %w", r.chainID, err)
	}
	r.logger.Debug("rpc endpoint selected", zap.String("url", url), zap.String("algorithm", string(r.picker.Algorithm())))
	r.client = chain.NewEVMClient(url)
	return r.client, nil
}

// release forgets c after a transport failure.
func (r *Reader) release(c *chain.EVMClient, err error) {
	var rpcErr *chain.RPCError
	if err == nil || errors.As(err, &rpcErr) || errors.Is(err, context.Canceled) {
		return
	}
	r.mu.Lock()
	if r.client == c {
		r.client = nil
		r.logger.Debug("rpc endpoint dropped", zap.String("url", c.URL()), zap.Error(err))
	}
	r.mu.Unlock()
}

// URL returns the selected endpoint, or "" before the first call.
func (r *Reader) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return ""
	}
	return r.client.URL()
}

// ChainID implements chain.Reader.
func (r *Reader) ChainID(ctx context.Context) (int64, error) {
	c, err := r.get(ctx)
	if err != nil {
		return 0, err
	}
	id, err := c.ChainID(ctx)
	r.release(c, err)
	return id, err
}

// CallContract implements chain.Reader.
func (r *Reader) CallContract(ctx context.Context, msg chain.CallMsg) ([]byte, error) {
	c, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.CallContract(ctx, msg)
	r.release(c, err)
	return out, err
}

// TransactionReceipt implements chain.Reader.
func (r *Reader) TransactionReceipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	c, err := r.get(ctx)
	if err != nil {
		return nil, err
	}
	rc, err := c.TransactionReceipt(ctx, hash)
	r.release(c, err)
	return rc, err
}
