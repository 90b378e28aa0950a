// Package sale reads the sale state of a collection contract.
package sale

import (
	"context"
	"math/big"

	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxPerAddress is the per-address cap assumed for contracts that do
// not expose MAX_TOTAL_MINT_PER_ADDRESS.
const DefaultMaxPerAddress = 10

// Snapshot is what one eligibility check observed. Fields the check did not
// reach stay nil/false.
type Snapshot struct {
	PublicSaleActive bool
	PresaleActive    bool
	PresaleMode      bool
	TotalMintable    *big.Int
	TotalMinted      *big.Int
	MaxPerAddress    *big.Int
	AddressBalance   *big.Int
}

// Status is a point-in-time overview of the sale, for display.
type Status struct {
	PublicSaleActive bool
	PresaleActive    bool
	TotalMintable    *big.Int
	TotalMinted      *big.Int
	MaxPerAddress    *big.Int
	Price            *big.Int
}

// Reader wraps the sale getters of one collection contract. Optional getters
// fall back to their defaults according to the resolved capabilities.
type Reader struct {
	caller *contract.Caller
	caps   contract.Capabilities
}

// NewReader creates a Reader.
func NewReader(caller *contract.Caller, caps contract.Capabilities) *Reader {
	return &Reader{caller: caller, caps: caps}
}

// Capabilities returns the capabilities the reader was built with.
func (r *Reader) Capabilities() contract.Capabilities { return r.caps }

// PublicSaleActive reads isPublicSaleActive; contracts without it are
// always in public sale.
func (r *Reader) PublicSaleActive(ctx context.Context) (bool, error) {
	if !r.caps.HasPublicSaleFlag {
		return true, nil
	}
	return r.caller.Bool(ctx, contract.MethodIsPublicSaleActive)
}

// PresaleActive reads isPreSaleActive.
func (r *Reader) PresaleActive(ctx context.Context) (bool, error) {
	return r.caller.Bool(ctx, contract.MethodIsPreSaleActive)
}

// TotalMintable reads MAX_TOTAL_MINT.
func (r *Reader) TotalMintable(ctx context.Context) (*big.Int, error) {
	return r.caller.Uint(ctx, contract.MethodMaxTotalMint)
}

// TotalMinted reads totalSupply.
func (r *Reader) TotalMinted(ctx context.Context) (*big.Int, error) {
	return r.caller.Uint(ctx, contract.MethodTotalSupply)
}

// MaxPerAddress reads MAX_TOTAL_MINT_PER_ADDRESS, or DefaultMaxPerAddress.
func (r *Reader) MaxPerAddress(ctx context.Context) (*big.Int, error) {
	if !r.caps.HasPerAddressCap {
		return big.NewInt(DefaultMaxPerAddress), nil
	}
	return r.caller.Uint(ctx, contract.MethodMaxPerAddress)
}

// BalanceOf reads balanceOf(addr).
func (r *Reader) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	return r.caller.Uint(ctx, contract.MethodBalanceOf, addr)
}

// Price reads PRICE, the per-token price in wei.
func (r *Reader) Price(ctx context.Context) (*big.Int, error) {
	return r.caller.Uint(ctx, contract.MethodPrice)
}

// OnPreSaleAllowList asks the contract directly via onPreSaleAllowList(address).
func (r *Reader) OnPreSaleAllowList(ctx context.Context, addr common.Address) (bool, error) {
	return r.caller.Bool(ctx, contract.MethodOnPreSaleAllowList, addr)
}

// OnEarlyPurchaseList asks the contract to verify a Merkle proof.
func (r *Reader) OnEarlyPurchaseList(ctx context.Context, addr common.Address, proof [][32]byte) (bool, error) {
	return r.caller.Bool(ctx, contract.MethodOnEarlyPurchaseList, addr, proof)
}

// ReadStatus reads the display getters in parallel.
func (r *Reader) ReadStatus(ctx context.Context) (*Status, error) {
	var s Status
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { s.PublicSaleActive, err = r.PublicSaleActive(ctx); return })
	g.Go(func() (err error) { s.PresaleActive, err = r.PresaleActive(ctx); return })
	g.Go(func() (err error) { s.TotalMintable, err = r.TotalMintable(ctx); return })
	g.Go(func() (err error) { s.TotalMinted, err = r.TotalMinted(ctx); return })
	g.Go(func() (err error) { s.MaxPerAddress, err = r.MaxPerAddress(ctx); return })
	g.Go(func() (err error) { s.Price, err = r.Price(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}
