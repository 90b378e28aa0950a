package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is how often a pending receipt is re-requested.
const DefaultPollInterval = 500 * time.Millisecond

// ErrReceiptTimeout is returned when a transaction is not mined within the
// poller's maximum duration.
var ErrReceiptTimeout = errors.New("transaction not mined in time")

// ReceiptReader is the part of a chain client the poller needs.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// ReceiptPoller waits for transactions to be mined. It retries only while the
// receipt is pending; any query error ends the wait immediately.
type ReceiptPoller struct {
	reader   ReceiptReader
	interval time.Duration
	maxWait  time.Duration
}

// NewReceiptPoller creates a poller. A zero interval uses DefaultPollInterval;
// a zero maxWait polls until the context is cancelled.
func NewReceiptPoller(reader ReceiptReader, interval, maxWait time.Duration) *ReceiptPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ReceiptPoller{reader: reader, interval: interval, maxWait: maxWait}
}

// Wait polls for the receipt of hash. Only the poller's own ceiling yields
// ErrReceiptTimeout; a deadline on ctx is returned as ctx's error.
func (p *ReceiptPoller) Wait(ctx context.Context, hash common.Hash) (*Receipt, error) {
	if p.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.maxWait, ErrReceiptTimeout)
		defer cancel()
	}
	expired := func() error {
		if errors.Is(context.Cause(ctx), ErrReceiptTimeout) {
			return fmt.Errorf("%w: %s after %s", ErrReceiptTimeout, hash.Hex(), p.maxWait)
		}
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		receipt, err := p.reader.TransactionReceipt(ctx, hash)
		if err != nil {
			if terr := expired(); terr != nil {
				return nil, terr
			}
			return nil, fmt.Errorf("fetching receipt %s: %w", hash.Hex(), err)
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if terr := expired(); terr != nil {
				return nil, terr
			}
			return nil, ctx.Err()
		}
	}
}

// WaitAll polls every hash in parallel and returns the receipts in input order.
// The first failure cancels the remaining polls.
func (p *ReceiptPoller) WaitAll(ctx context.Context, hashes ...common.Hash) ([]*Receipt, error) {
	receipts := make([]*Receipt, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range hashes {
		g.Go(func() error {
			r, err := p.Wait(gctx, h)
			if err != nil {
				return err
			}
			receipts[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}
