// Package session manages the connection to a user's wallet: connecting,
// restoring a cached connection, keeping the wallet on the project chain and
// tracking account changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ErrNoAccounts is returned when the wallet connects but exposes no account.
var ErrNoAccounts = errors.New("wallet exposes no accounts")

const refreshTimeout = 10 * time.Second

// Handle is a connected wallet.
type Handle interface {
	chain.Provider
	// OnAccountsChanged registers fn and returns a function that removes it.
	OnAccountsChanged(fn func()) (remove func())
}

// Bridge opens wallet connections. A nil Handle with a nil error means no
// wallet interface is available.
type Bridge interface {
	// Connect always asks the user for a fresh selection.
	Connect(ctx context.Context) (Handle, error)
	// Restore reopens the cached wallet without prompting.
	Restore(ctx context.Context) (Handle, error)
	// CachedProvider reports whether a previous connection can be restored.
	CachedProvider() bool
}

// Status is the outcome of a connect attempt.
type Status int

const (
	StatusConnected Status = iota
	StatusSkipped          // autoconnect with nothing cached
	StatusNoInterface      // the bridge yielded no wallet
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusSkipped:
		return "skipped"
	case StatusNoInterface:
		return "no wallet interface"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// SwitchOutcome is what happened when moving the wallet to the project chain.
type SwitchOutcome int

const (
	SwitchNotNeeded        SwitchOutcome = iota // already there, or no chain required
	SwitchRequested                             // wallet switched
	SwitchAddedChain                            // wallet did not know the chain; added then switched
	SwitchChainUnsupported                      // unknown to the wallet and to the registry
	SwitchFailed                                // wallet refused for another reason
)

func (o SwitchOutcome) String() string {
	switch o {
	case SwitchNotNeeded:
		return "not needed"
	case SwitchRequested:
		return "switched"
	case SwitchAddedChain:
		return "added chain and switched"
	case SwitchChainUnsupported:
		return "chain unsupported"
	case SwitchFailed:
		return "switch failed"
	}
	return fmt.Sprintf("SwitchOutcome(%d)", int(o))
}

// Result describes a connect attempt.
type Result struct {
	Status  Status
	Switch  SwitchOutcome
	Address common.Address
}

// State is an immutable snapshot of the session.
type State struct {
	Accounts []common.Address // first is the current account
	Handle   Handle
}

// Manager owns the wallet session. Safe for concurrent use.
type Manager struct {
	bridge   Bridge
	bus      *events.Bus
	registry *chain.Registry
	logger   *zap.Logger

	required atomic.Int64
	state    atomic.Pointer[State]

	mu     sync.Mutex // serializes connects and listener swaps
	detach func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRegistry sets the network table consulted when the wallet does not
// know the required chain.
func WithRegistry(r *chain.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// NewManager creates a Manager emitting wallet events on bus.
func NewManager(bridge Bridge, bus *events.Bus, opts ...Option) *Manager {
	m := &Manager{
		bridge:   bridge,
		bus:      bus,
		registry: chain.NewRegistry(),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	m.state.Store(&State{})
	return m
}

// SetRequiredChain sets the chain later connects move the wallet to.
// 0 means no requirement.
func (m *Manager) SetRequiredChain(id int64) {
	m.required.Store(id)
}

// RequiredChain returns the chain connects move the wallet to.
func (m *Manager) RequiredChain() int64 {
	return m.required.Load()
}

// Connect asks the bridge for a fresh wallet selection.
func (m *Manager) Connect(ctx context.Context) (Result, error) {
	return m.establish(ctx, m.bridge.Connect)
}

// Autoconnect restores the cached wallet. With nothing cached it returns
// StatusSkipped without touching the bridge.
func (m *Manager) Autoconnect(ctx context.Context) (Result, error) {
	if !m.bridge.CachedProvider() {
		m.logger.Debug("autoconnect skipped: no cached provider")
		return Result{Status: StatusSkipped}, nil
	}
	return m.establish(ctx, m.bridge.Restore)
}

// Connected reports whether a wallet is connected.
func (m *Manager) Connected() bool {
	return m.state.Load().Handle != nil
}

// CurrentAddress returns the current account. ok is false when disconnected.
func (m *Manager) CurrentAddress() (addr common.Address, ok bool) {
	s := m.state.Load()
	if s.Handle == nil || len(s.Accounts) == 0 {
		return common.Address{}, false
	}
	return s.Accounts[0], true
}

// Accounts returns a copy of the account list.
func (m *Manager) Accounts() []common.Address {
	return append([]common.Address(nil), m.state.Load().Accounts...)
}

// Provider returns the connected wallet, or nil.
func (m *Manager) Provider() Handle {
	return m.state.Load().Handle
}

// Close detaches the account listener and forgets the connection.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detach != nil {
		m.detach()
		m.detach = nil
	}
	m.state.Store(&State{})
}

// establish connects and then emits WalletConnected with mu released, so a
// handler may call back into the Manager, Close included.
func (m *Manager) establish(ctx context.Context, open func(context.Context) (Handle, error)) (Result, error) {
	res, err := m.attach(ctx, open)
	if err != nil || res.Status != StatusConnected {
		return res, err
	}
	m.bus.Emit(events.WalletConnected{Address: res.Address.Hex()})
	return res, nil
}

func (m *Manager) attach(ctx context.Context, open func(context.Context) (Handle, error)) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("connecting wallet: %w", err)
	}
	if h == nil {
		m.logger.Info("no wallet interface available")
		return Result{Status: StatusNoInterface}, nil
	}

	outcome := m.switchChain(ctx, h)

	accounts, err := h.Accounts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading accounts: %w", err)
	}
	if len(accounts) == 0 {
		return Result{}, ErrNoAccounts
	}

	if m.detach != nil {
		m.detach()
	}
	m.state.Store(&State{Accounts: accounts, Handle: h})
	m.detach = h.OnAccountsChanged(func() { m.refresh(h) })

	m.logger.Info("wallet connected",
		zap.String("address", accounts[0].Hex()),
		zap.Stringer("switch", outcome))
	return Result{Status: StatusConnected, Switch: outcome, Address: accounts[0]}, nil
}

// refresh re-reads accounts after the wallet reported a change.
func (m *Manager) refresh(h Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	accounts, err := h.Accounts(ctx)
	if err != nil {
		m.logger.Warn("refreshing accounts", zap.Error(err))
		return
	}
	if m.state.Load().Handle != h {
		return
	}
	m.state.Store(&State{Accounts: accounts, Handle: h})
	m.bus.Emit(events.WalletChanged{})
}

func (m *Manager) switchChain(ctx context.Context, h Handle) SwitchOutcome {
	want := m.required.Load()
	if want == 0 {
		return SwitchNotNeeded
	}
	if have, err := h.ChainID(ctx); err == nil && have == want {
		return SwitchNotNeeded
	}

	log := m.logger.With(zap.Int64("chain_id", want))
	params := chain.SwitchChainParams{ChainID: chain.HexChainID(want)}

	_, err := h.Request(ctx, "wallet_switchEthereumChain", params)
	if err == nil {
		return SwitchRequested
	}
	if chain.ErrorCode(err) != chain.CodeUnrecognizedChain {
		log.Warn("wallet refused chain switch", zap.Error(err))
		return SwitchFailed
	}

	c, lerr := m.registry.GetByChainID(want)
	if lerr != nil {
		log.Warn("wallet and registry do not know the chain")
		return SwitchChainUnsupported
	}
	if _, err := h.Request(ctx, "wallet_addEthereumChain", c.AddParams()); err != nil {
		log.Warn("wallet refused to add chain", zap.Error(err))
		return SwitchFailed
	}
	if _, err := h.Request(ctx, "wallet_switchEthereumChain", params); err != nil {
		log.Warn("wallet refused chain switch after add", zap.Error(err))
		return SwitchFailed
	}
	return SwitchAddedChain
}
