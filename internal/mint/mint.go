package mint

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/session"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Result is a mined mint.
type Result struct {
	Hash     common.Hash
	Receipt  *chain.Receipt
	Mode     Mode
	Quantity int64
	Value    *big.Int // wei paid
}

// Mint connects a wallet if none is connected and mints quantity tokens to
// the current account.
func (c *Core) Mint(ctx context.Context, quantity int64) (*Result, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if _, err := c.state(); err != nil {
		return nil, err
	}
	if !c.session.Connected() {
		res, err := c.session.Connect(ctx)
		if err != nil {
			return nil, err
		}
		if res.Status != session.StatusConnected {
			return nil, fmt.Errorf("%w: %s", ErrNotConnected, res.Status)
		}
	}
	addr, ok := c.session.CurrentAddress()
	if !ok {
		return nil, ErrNotConnected
	}
	return c.MintTo(ctx, quantity, addr)
}

// MintTo checks eligibility of addr, submits the mint through the connected
// wallet and waits for the receipt. Progress is reported on the bus:
// TransactionSubmitted once the wallet accepts the transaction, then
// TransactionCompleted, or an Error of type TRANSACTION_ERROR.
func (c *Core) MintTo(ctx context.Context, quantity int64, addr common.Address) (*Result, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	wallet := c.session.Provider()
	if wallet == nil {
		return nil, ErrNotConnected
	}
	if !c.minting.TryLock() {
		return nil, ErrMintInProgress
	}
	defer c.minting.Unlock()

	el, err := c.CheckEligibility(ctx, addr)
	if err != nil {
		return nil, err
	}

	price, err := st.reader.Price(ctx)
	if err != nil {
		return nil, c.readFailed("PRICE", err)
	}
	qty := big.NewInt(quantity)
	value := new(big.Int).Mul(price, qty)

	log := c.logger.With(
		zap.String("address", addr.Hex()),
		zap.Int64("quantity", quantity),
		zap.Stringer("mode", el.Mode))

	sender := contract.NewSender(wallet, st.address, st.abi)
	var hash common.Hash
	if el.Mode == ModePresale && st.caps.HasEarlyPurchase {
		log.Debug("early purchase", zap.Int("proof_len", len(el.Proof.Path)))
		hash, err = sender.Send(ctx, addr, value, contract.MethodEarlyPurchase, qty, el.Proof.PathBytes())
	} else {
		log.Debug("purchase")
		hash, err = sender.Send(ctx, addr, value, contract.MethodPurchase, qty)
	}
	if err != nil {
		log.Warn("mint submission failed", zap.Error(err))
		c.bus.Emit(events.Error{Type: events.ErrTransaction, Message: err.Error()})
		return nil, fmt.Errorf("submitting mint: %w", err)
	}

	log.Info("mint submitted", zap.String("hash", hash.Hex()), zap.Stringer("value", value))
	c.bus.Emit(events.TransactionSubmitted{TransactionHash: hash.Hex()})

	receipt, err := c.waitReceipt(ctx, wallet, hash)
	if err != nil {
		log.Warn("waiting for mint receipt", zap.String("hash", hash.Hex()), zap.Error(err))
		c.bus.Emit(events.Error{Type: events.ErrTransaction, Message: err.Error()})
		return nil, err
	}

	log.Info("mint mined",
		zap.String("hash", hash.Hex()),
		zap.Uint64("block", receipt.BlockNumber),
		zap.Bool("reverted", receipt.Reverted()))
	c.bus.Emit(events.TransactionCompleted{Receipt: receipt})

	return &Result{Hash: hash, Receipt: receipt, Mode: el.Mode, Quantity: quantity, Value: value}, nil
}

// waitReceipt polls until the receipt is available, ctx is done or the Core
// is closed.
func (c *Core) waitReceipt(ctx context.Context, reader chain.ReceiptReader, hash common.Hash) (*chain.Receipt, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	return chain.NewReceiptPoller(reader, c.pollInterval, c.maxPoll).Wait(ctx, hash)
}
