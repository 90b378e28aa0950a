package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedReceipts returns nil for the first pending[hash] calls, then a receipt.
type scriptedReceipts struct {
	mu      sync.Mutex
	pending map[common.Hash]int
	calls   map[common.Hash]int
	err     error
}

func newScriptedReceipts() *scriptedReceipts {
	return &scriptedReceipts{pending: map[common.Hash]int{}, calls: map[common.Hash]int{}}
}

func (s *scriptedReceipts) TransactionReceipt(_ context.Context, hash common.Hash) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[hash]++
	if s.err != nil {
		return nil, s.err
	}
	if s.calls[hash] <= s.pending[hash] {
		return nil, nil
	}
	return &Receipt{TxHash: hash, Status: 1, BlockNumber: uint64(s.calls[hash])}, nil
}

func (s *scriptedReceipts) callCount(hash common.Hash) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[hash]
}

func TestReceiptPollerAfterNPending(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		reader := newScriptedReceipts()
		hash := common.HexToHash("0xaa")
		reader.pending[hash] = n

		p := NewReceiptPoller(reader, time.Millisecond, 0)
		receipt, err := p.Wait(context.Background(), hash)
		require.NoError(t, err)
		require.NotNil(t, receipt)
		assert.Equal(t, hash, receipt.TxHash)
		assert.Equal(t, n+1, reader.callCount(hash), "exactly one non-nil response ends polling")
	}
}

func TestReceiptPollerErrorIsNotRetried(t *testing.T) {
	reader := newScriptedReceipts()
	reader.err = errors.New("node unavailable")
	hash := common.HexToHash("0xbb")

	_, err := NewReceiptPoller(reader, time.Millisecond, 0).Wait(context.Background(), hash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node unavailable")
	assert.Equal(t, 1, reader.callCount(hash))
}

func TestReceiptPollerTimeout(t *testing.T) {
	reader := newScriptedReceipts()
	hash := common.HexToHash("0xcc")
	reader.pending[hash] = 1 << 30

	_, err := NewReceiptPoller(reader, time.Millisecond, 20*time.Millisecond).Wait(context.Background(), hash)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
}

func TestReceiptPollerCallerDeadlineIsNotTimeout(t *testing.T) {
	reader := newScriptedReceipts()
	hash := common.HexToHash("0xce")
	reader.pending[hash] = 1 << 30

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewReceiptPoller(reader, time.Millisecond, time.Hour).Wait(ctx, hash)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrReceiptTimeout)
}

func TestReceiptPollerContextCancel(t *testing.T) {
	reader := newScriptedReceipts()
	hash := common.HexToHash("0xdd")
	reader.pending[hash] = 1 << 30

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := NewReceiptPoller(reader, time.Millisecond, 0).Wait(ctx, hash)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrReceiptTimeout)
}

func TestReceiptPollerDefaultInterval(t *testing.T) {
	p := NewReceiptPoller(newScriptedReceipts(), 0, 0)
	assert.Equal(t, DefaultPollInterval, p.interval)
}

func TestReceiptPollerWaitAll(t *testing.T) {
	reader := newScriptedReceipts()
	a, b, c := common.HexToHash("0x01"), common.HexToHash("0x02"), common.HexToHash("0x03")
	reader.pending[a] = 2
	reader.pending[c] = 5

	receipts, err := NewReceiptPoller(reader, time.Millisecond, 0).WaitAll(context.Background(), a, b, c)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, a, receipts[0].TxHash)
	assert.Equal(t, b, receipts[1].TxHash)
	assert.Equal(t, c, receipts[2].TxHash)
}

func TestReceiptPollerWaitAllFailsFast(t *testing.T) {
	reader := newScriptedReceipts()
	reader.err = errors.New("boom")

	_, err := NewReceiptPoller(reader, time.Millisecond, 0).WaitAll(context.Background(),
		common.HexToHash("0x01"), common.HexToHash("0x02"))
	require.Error(t, err)
}
