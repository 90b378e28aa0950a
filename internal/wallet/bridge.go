package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/session"
	"go.uber.org/zap"
)

// ErrSelectionCancelled is returned when the user dismisses the wallet picker.
var ErrSelectionCancelled = errors.New("wallet selection cancelled")

// Selector lets the user pick one of wallets.
type Selector func(ctx context.Context, wallets []*Wallet) (*Wallet, error)

// DefaultSelector picks the default wallet without prompting.
func DefaultSelector(_ context.Context, wallets []*Wallet) (*Wallet, error) {
	for _, w := range wallets {
		if w.IsDefault {
			return w, nil
		}
	}
	return wallets[0], nil
}

// Bridge connects local wallets to a session.Manager. The chosen wallet is
// current; every other wallet is exposed as an additional account.
type Bridge struct {
	manager  *Manager
	cache    *SessionCache
	selector Selector
	cfg      ProviderConfig
	logger   *zap.Logger
}

// NewBridge creates a Bridge. selector nil means DefaultSelector; cache nil
// disables remembering the connection.
func NewBridge(m *Manager, cache *SessionCache, selector Selector, cfg ProviderConfig) *Bridge {
	if selector == nil {
		selector = DefaultSelector
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{manager: m, cache: cache, selector: selector, cfg: cfg, logger: logger}
}

var _ session.Bridge = (*Bridge)(nil)

// Connect asks the selector for a wallet. No wallets configured yields a
// nil handle: there is no wallet interface to connect to.
func (b *Bridge) Connect(ctx context.Context) (session.Handle, error) {
	wallets := b.manager.List()
	if len(wallets) == 0 {
		return nil, nil
	}
	w, err := b.selector(ctx, wallets)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrSelectionCancelled
	}
	return b.handle(w)
}

// Restore reopens the cached wallet. A cached wallet that no longer exists
// clears the cache and yields a nil handle.
func (b *Bridge) Restore(ctx context.Context) (session.Handle, error) {
	name, ok := b.cachedName()
	if !ok {
		return nil, nil
	}
	w, err := b.manager.Get(name)
	if errors.Is(err, ErrWalletNotFound) {
		b.logger.Info("cached wallet is gone", zap.String("wallet", name))
		_ = b.cache.Clear()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b.handle(w)
}

// CachedProvider reports whether Restore can reconnect without prompting.
func (b *Bridge) CachedProvider() bool {
	name, ok := b.cachedName()
	if !ok {
		return false
	}
	_, err := b.manager.Get(name)
	return err == nil
}

// Disconnect forgets the cached wallet.
func (b *Bridge) Disconnect() error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Clear()
}

// handle keeps a failed open from becoming a non-nil interface.
func (b *Bridge) handle(w *Wallet) (session.Handle, error) {
	p, err := b.open(w)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Bridge) open(w *Wallet) (*Provider, error) {
	accounts := []*Wallet{w}
	for _, other := range b.manager.List() {
		if other.Name != w.Name {
			accounts = append(accounts, other)
		}
	}
	if b.cache != nil {
		if err := b.cache.Save(w.Name); err != nil {
			return nil, fmt.Errorf("caching session: %w", err)
		}
	}
	b.logger.Debug("wallet opened", zap.String("wallet", w.Name), zap.String("address", w.Address))
	return NewProvider(accounts, b.manager.Keystore(), b.cfg), nil
}

func (b *Bridge) cachedName() (string, bool) {
	if b.cache == nil {
		return "", false
	}
	return b.cache.Load()
}
