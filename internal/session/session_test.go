package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/chaintest"
	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeBridge struct {
	handle   session.Handle
	cached   bool
	err      error
	connects int
	restores int
}

func (b *fakeBridge) Connect(context.Context) (session.Handle, error) {
	b.connects++
	return b.handle, b.err
}

func (b *fakeBridge) Restore(context.Context) (session.Handle, error) {
	b.restores++
	return b.handle, b.err
}

func (b *fakeBridge) CachedProvider() bool { return b.cached }

func newWallet(t *testing.T, chainID int64, accounts ...common.Address) *chaintest.Chain {
	t.Helper()
	parsed, err := contract.BuiltinABI(contract.CollectionBuiltin)
	require.NoError(t, err)
	c := chaintest.New(chainID, parsed)
	c.SetAccounts(accounts...)
	return c
}

func recordEvents(bus *events.Bus) *[]events.Event {
	var got []events.Event
	bus.OnAny(func(e events.Event) { got = append(got, e) })
	return &got
}

func TestAutoconnectSkippedWithoutCache(t *testing.T) {
	bridge := &fakeBridge{handle: newWallet(t, 1, alice)}
	m := session.NewManager(bridge, events.NewBus())

	res, err := m.Autoconnect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StatusSkipped, res.Status)
	assert.Zero(t, bridge.restores)
	assert.Zero(t, bridge.connects)
	assert.False(t, m.Connected())
}

func TestAutoconnectRestoresCachedWallet(t *testing.T) {
	bridge := &fakeBridge{handle: newWallet(t, 1, alice), cached: true}
	bus := events.NewBus()
	got := recordEvents(bus)
	m := session.NewManager(bridge, bus)

	res, err := m.Autoconnect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StatusConnected, res.Status)
	assert.Equal(t, 1, bridge.restores)
	assert.Zero(t, bridge.connects)
	assert.Equal(t, []events.Event{events.WalletConnected{Address: alice.Hex()}}, *got)
}

func TestConnectNoInterface(t *testing.T) {
	bus := events.NewBus()
	got := recordEvents(bus)
	m := session.NewManager(&fakeBridge{}, bus)

	res, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StatusNoInterface, res.Status)
	assert.Empty(t, *got)
	assert.Nil(t, m.Provider())
}

func TestConnectBridgeError(t *testing.T) {
	denied := errors.New("user closed the picker")
	m := session.NewManager(&fakeBridge{err: denied}, events.NewBus())

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, denied)
}

func TestConnectNoAccounts(t *testing.T) {
	m := session.NewManager(&fakeBridge{handle: newWallet(t, 1)}, events.NewBus())
	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, session.ErrNoAccounts)
	assert.False(t, m.Connected())
}

func TestConnectSetsCurrentAddress(t *testing.T) {
	w := newWallet(t, 1, alice, bob)
	m := session.NewManager(&fakeBridge{handle: w}, events.NewBus())

	_, ok := m.CurrentAddress()
	assert.False(t, ok)

	res, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, alice, res.Address)

	addr, ok := m.CurrentAddress()
	require.True(t, ok)
	assert.Equal(t, alice, addr)
	assert.Equal(t, []common.Address{alice, bob}, m.Accounts())
	assert.Same(t, w, m.Provider())
}

func TestChainSwitchOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		required int64
		setup    func(w *chaintest.Chain)
		want     session.SwitchOutcome
		requests []string
		onChain  int64
	}{
		{
			name:     "no requirement",
			required: 0,
			want:     session.SwitchNotNeeded,
			onChain:  1,
		},
		{
			name:     "already there",
			required: 1,
			want:     session.SwitchNotNeeded,
			onChain:  1,
		},
		{
			name:     "known chain",
			required: 137,
			setup:    func(w *chaintest.Chain) {},
			want:     session.SwitchRequested,
			requests: []string{"wallet_switchEthereumChain"},
			onChain:  137,
		},
		{
			name:     "unknown to wallet, added from registry",
			required: 80001,
			setup:    func(w *chaintest.Chain) { w.Forget(80001) },
			want:     session.SwitchAddedChain,
			requests: []string{"wallet_switchEthereumChain", "wallet_addEthereumChain", "wallet_switchEthereumChain"},
			onChain:  80001,
		},
		{
			name:     "unknown to wallet and registry",
			required: 999_999,
			setup:    func(w *chaintest.Chain) { w.Forget(999_999) },
			want:     session.SwitchChainUnsupported,
			requests: []string{"wallet_switchEthereumChain"},
			onChain:  1,
		},
		{
			name:     "user rejected",
			required: 137,
			setup: func(w *chaintest.Chain) {
				w.OnRequest("wallet_switchEthereumChain", func([]any) (json.RawMessage, error) {
					return nil, &chain.RPCError{Code: chain.CodeUserRejected, Message: "User rejected the request."}
				})
			},
			want:     session.SwitchFailed,
			requests: []string{"wallet_switchEthereumChain"},
			onChain:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWallet(t, 1, alice)
			// Every registry chain is known to the wallet unless forgotten.
			for _, c := range chain.NewRegistry().All() {
				w.Know(c.ChainID)
			}
			if tt.setup != nil {
				tt.setup(w)
			}
			before := len(w.Requests())

			m := session.NewManager(&fakeBridge{handle: w}, events.NewBus())
			m.SetRequiredChain(tt.required)
			res, err := m.Connect(context.Background())
			require.NoError(t, err, "a failed switch does not abort the connect")
			assert.Equal(t, session.StatusConnected, res.Status)
			assert.Equal(t, tt.want, res.Switch)

			var walletCalls []string
			for _, r := range w.Requests()[before:] {
				if r == "wallet_switchEthereumChain" || r == "wallet_addEthereumChain" {
					walletCalls = append(walletCalls, r)
				}
			}
			assert.Equal(t, tt.requests, walletCalls)

			id, _ := w.ChainID(context.Background())
			assert.Equal(t, tt.onChain, id)
		})
	}
}

func TestAccountsChangedEmitsWalletChanged(t *testing.T) {
	w := newWallet(t, 1, alice)
	bus := events.NewBus()
	changed := 0
	bus.OnWalletChanged(func(events.WalletChanged) { changed++ })
	m := session.NewManager(&fakeBridge{handle: w}, bus)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	w.ChangeAccounts(bob, alice)
	assert.Equal(t, 1, changed)
	addr, _ := m.CurrentAddress()
	assert.Equal(t, bob, addr)
}

func TestReconnectDetachesPreviousListener(t *testing.T) {
	first := newWallet(t, 1, alice)
	bridge := &fakeBridge{handle: first}
	bus := events.NewBus()
	changed := 0
	bus.OnWalletChanged(func(events.WalletChanged) { changed++ })
	m := session.NewManager(bridge, bus)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	_, err = m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Listeners(), "reconnecting the same wallet keeps one listener")

	second := newWallet(t, 1, bob)
	bridge.handle = second
	_, err = m.Connect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, first.Listeners())

	first.ChangeAccounts(bob)
	assert.Zero(t, changed, "old wallet no longer drives the session")
	addr, _ := m.CurrentAddress()
	assert.Equal(t, bob, addr)
}

func TestCloseDisconnects(t *testing.T) {
	w := newWallet(t, 1, alice)
	m := session.NewManager(&fakeBridge{handle: w}, events.NewBus())
	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	m.Close()
	assert.False(t, m.Connected())
	assert.Zero(t, w.Listeners())
	_, ok := m.CurrentAddress()
	assert.False(t, ok)

	m.Close() // idempotent
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "skipped", session.StatusSkipped.String())
	assert.Equal(t, "added chain and switched", session.SwitchAddedChain.String())
}

func TestConnectHandlerCanCloseSession(t *testing.T) {
	w := newWallet(t, 1, alice)
	bus := events.NewBus()
	m := session.NewManager(&fakeBridge{handle: w}, bus)
	bus.OnWalletConnected(func(events.WalletConnected) { m.Close() })

	done := make(chan error, 1)
	go func() {
		_, err := m.Connect(context.Background())
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Connect blocked on a handler calling Close")
	}
	assert.False(t, m.Connected())
	assert.Zero(t, w.Listeners())
}
