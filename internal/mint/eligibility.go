package mint

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/allowlist"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/sale"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Mode is the sale phase a mint goes through.
type Mode int

const (
	ModePublic Mode = iota
	ModePresale
)

func (m Mode) String() string {
	if m == ModePresale {
		return "presale"
	}
	return "public"
}

// Eligibility is a successful eligibility check.
type Eligibility struct {
	Mode     Mode
	Snapshot sale.Snapshot
	// Proof is the allowlist proof of the address; set in presale mode.
	Proof allowlist.Proof
}

// CheckEligibility decides whether addr may mint right now. Every call reads
// the contract afresh. A refusal emits one Error event and returns a
// *Rejection; a failed contract read emits CONTRACT_CALL_ERROR.
//
// In public mode the per-address cap is not checked.
func (c *Core) CheckEligibility(ctx context.Context, addr common.Address) (Eligibility, error) {
	st, err := c.state()
	if err != nil {
		return Eligibility{}, err
	}
	log := c.logger.With(zap.String("address", addr.Hex()))
	var snap sale.Snapshot
	el := Eligibility{Mode: ModePublic}

	log.Debug("checking eligibility")
	if snap.PublicSaleActive, err = st.reader.PublicSaleActive(ctx); err != nil {
		return el, c.readFailed("isPublicSaleActive", err)
	}
	log.Debug("public sale", zap.Bool("active", snap.PublicSaleActive))

	if !snap.PublicSaleActive {
		if snap.PresaleActive, err = st.reader.PresaleActive(ctx); err != nil {
			return el, c.readFailed("isPreSaleActive", err)
		}
		log.Debug("presale", zap.Bool("active", snap.PresaleActive))
		if !snap.PresaleActive {
			return el, c.reject(events.ErrPresaleInactive, snap)
		}

		proof := st.tree.ProofFor(addr.Hex())
		allowed, err := c.isAllowed(ctx, st, addr, proof)
		if err != nil {
			return el, c.readFailed("allowlist", err)
		}
		log.Debug("allowlist", zap.Bool("allowed", allowed))
		if !allowed {
			return el, c.reject(events.ErrCannotMintPresale, snap)
		}
		snap.PresaleMode = true
		el.Mode = ModePresale
		el.Proof = proof
	}

	if snap.TotalMintable, err = st.reader.TotalMintable(ctx); err != nil {
		return el, c.readFailed("MAX_TOTAL_MINT", err)
	}
	if snap.TotalMinted, err = st.reader.TotalMinted(ctx); err != nil {
		return el, c.readFailed("totalSupply", err)
	}
	log.Debug("supply",
		zap.Stringer("mintable", snap.TotalMintable),
		zap.Stringer("minted", snap.TotalMinted))
	if snap.TotalMintable.Cmp(snap.TotalMinted) == 0 {
		return el, c.reject(events.ErrExceedsMaxSupply, snap)
	}

	if el.Mode == ModePublic {
		el.Snapshot = snap
		return el, nil
	}

	if snap.MaxPerAddress, err = st.reader.MaxPerAddress(ctx); err != nil {
		return el, c.readFailed("MAX_TOTAL_MINT_PER_ADDRESS", err)
	}
	if snap.AddressBalance, err = st.reader.BalanceOf(ctx, addr); err != nil {
		return el, c.readFailed("balanceOf", err)
	}
	log.Debug("per-address cap",
		zap.Stringer("max", snap.MaxPerAddress),
		zap.Stringer("balance", snap.AddressBalance))
	if snap.AddressBalance.Cmp(snap.MaxPerAddress) >= 0 {
		return el, c.reject(events.ErrExceedsIndividualSupply, snap)
	}

	el.Snapshot = snap
	return el, nil
}

// IsAllowed reports whether addr is on the presale allowlist, asking the
// contract when it can check membership itself.
func (c *Core) IsAllowed(ctx context.Context, addr common.Address) (bool, error) {
	st, err := c.state()
	if err != nil {
		return false, err
	}
	return c.isAllowed(ctx, st, addr, st.tree.ProofFor(addr.Hex()))
}

func (c *Core) isAllowed(ctx context.Context, st *loaded, addr common.Address, proof allowlist.Proof) (bool, error) {
	switch {
	case st.caps.HasNativeAllowlistCheck:
		return st.reader.OnPreSaleAllowList(ctx, addr)
	case st.caps.HasProofAllowlistCheck:
		return st.reader.OnEarlyPurchaseList(ctx, addr, proof.PathBytes())
	default:
		return st.tree.Verify(proof), nil
	}
}

// ProofFor returns the allowlist proof of addr.
func (c *Core) ProofFor(addr common.Address) (allowlist.Proof, error) {
	st, err := c.state()
	if err != nil {
		return allowlist.Proof{}, err
	}
	return st.tree.ProofFor(addr.Hex()), nil
}

// AllowlistRoot returns the allowlist Merkle root; ok is false when the
// allowlist is empty.
func (c *Core) AllowlistRoot() (root common.Hash, ok bool, err error) {
	st, err := c.state()
	if err != nil {
		return common.Hash{}, false, err
	}
	root, ok = st.tree.Root()
	return root, ok, nil
}

func (c *Core) reject(t events.ErrorType, snap sale.Snapshot) error {
	c.logger.Info("mint rejected", zap.String("reason", string(t)))
	c.bus.Emit(events.NewError(t))
	return &Rejection{Type: t, Snapshot: snap}
}

func (c *Core) readFailed(what string, err error) error {
	c.logger.Warn("contract read failed", zap.String("call", what), zap.Error(err))
	c.bus.Emit(events.NewError(events.ErrContractCall))
	return fmt.Errorf("reading %s: %w", what, err)
}
