package rpc

import (
	"context"
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorUnknownChain(t *testing.T) {
	sel := NewSelector(map[int64][]string{137: {"http://x"}}, AlgorithmFailover, nil)
	_, err := sel.Reader(424242)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestReaderSelectsLazily(t *testing.T) {
	good := &node{chainID: 80001, block: 50}
	srv := good.serve(t)

	sel := NewSelector(map[int64][]string{80001: {"http://127.0.0.1:19993", srv.URL}}, AlgorithmFailover, nil)
	r, err := sel.Reader(80001)
	require.NoError(t, err)
	reader := r.(*Reader)
	assert.Empty(t, reader.URL(), "nothing is contacted before the first call")

	out, err := reader.CallContract(context.Background(), chain.CallMsg{To: common.HexToAddress("0x01")})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), new(big.Int).SetBytes(out))
	assert.Equal(t, srv.URL, reader.URL())

	id, err := reader.ChainID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(80001), id)
	assert.Equal(t, int64(1), good.calls.Load())
}

func TestReaderKeepsEndpointOnRPCError(t *testing.T) {
	srv := (&node{chainID: 80001, block: 50}).serve(t)

	sel := NewSelector(map[int64][]string{80001: {srv.URL}}, AlgorithmFailover, nil)
	r, err := sel.Reader(80001)
	require.NoError(t, err)
	reader := r.(*Reader)

	// The fake node does not know eth_getTransactionReceipt.
	_, err = reader.TransactionReceipt(context.Background(), common.Hash{})
	var rpcErr *chain.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, srv.URL, reader.URL())
}

func TestReaderDropsDeadEndpoint(t *testing.T) {
	sel := NewSelector(map[int64][]string{80001: {"http://127.0.0.1:19992"}}, AlgorithmFailover, nil)
	r, err := sel.Reader(80001)
	require.NoError(t, err)
	reader := r.(*Reader)

	_, err = reader.ChainID(context.Background())
	require.Error(t, err)
	assert.Empty(t, reader.URL())
}

func TestReaderNoHealthyEndpoint(t *testing.T) {
	sel := NewSelector(map[int64][]string{80001: {"http://127.0.0.1:19990", "http://127.0.0.1:19991"}}, AlgorithmFastest, nil)
	r, err := sel.Reader(80001)
	require.NoError(t, err)

	_, err = r.ChainID(context.Background())
	assert.ErrorIs(t, err, ErrNoHealthyRPC)
}
