package mint_test

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/chaintest"
	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
	"github.com/Mohsinsiddi/w3mint/internal/project"
	"github.com/Mohsinsiddi/w3mint/internal/session"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	testChainID  = 80001
	contractAddr = "0x00000000000000000000000000000000000000c0"
)

var (
	buyer    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	stranger = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	friends  = []string{
		buyer.Hex(),
		"0x00000000000000000000000000000000000000f1",
		"0x00000000000000000000000000000000000000f2",
	}
	price = big.NewInt(5e16)
)

// fixture is a Core whose contract and wallet live on one in-memory chain.
type fixture struct {
	core   *mint.Core
	chain  *chaintest.Chain
	abi    abi.ABI
	events *recorder
}

type fixtureOpts struct {
	abiJSON   string // empty: built-in collection ABI
	whitelist []string
	connect   bool
	opts      []mint.Option
}

func newFixture(t *testing.T, fo fixtureOpts) *fixture {
	t.Helper()
	parsed, err := contract.ParseABI(json.RawMessage(fo.abiJSON))
	require.NoError(t, err)

	fc := chaintest.New(testChainID, parsed)
	fc.SetAccounts(buyer)

	rec := newRecorder()
	bus := events.NewBus()
	rec.attach(bus)

	opts := append([]mint.Option{
		mint.WithBus(bus),
		mint.WithBridge(&bridge{handle: fc}),
		mint.WithClientFactory(func(int64) (chain.Reader, error) { return fc, nil }),
		mint.WithPollInterval(time.Millisecond),
	}, fo.opts...)
	core := mint.New(opts...)
	t.Cleanup(core.Close)

	var rawABI json.RawMessage
	if fo.abiJSON != "" {
		rawABI = json.RawMessage(fo.abiJSON)
	}
	require.NoError(t, core.SetMetadata(&project.Metadata{
		Contract: project.Contract{
			ABI:       rawABI,
			Address:   contractAddr,
			Chain:     "mumbai",
			ChainID:   testChainID,
			Whitelist: fo.whitelist,
		},
		PadNoMinted: 100,
	}))

	if fo.connect {
		_, err := core.Connect(context.Background())
		require.NoError(t, err)
	}
	rec.reset()
	return &fixture{core: core, chain: fc, abi: parsed, events: rec}
}

// publicSale scripts an open public sale with room left.
func (f *fixture) publicSale() *fixture {
	f.chain.
		Return(contract.MethodIsPublicSaleActive, true).
		Return(contract.MethodMaxTotalMint, big.NewInt(1000)).
		Return(contract.MethodTotalSupply, big.NewInt(10)).
		Return(contract.MethodPrice, price)
	return f
}

// presale scripts a closed public sale and an open presale.
func (f *fixture) presale(balance int64) *fixture {
	f.chain.
		Return(contract.MethodIsPublicSaleActive, false).
		Return(contract.MethodIsPreSaleActive, true).
		Return(contract.MethodMaxTotalMint, big.NewInt(1000)).
		Return(contract.MethodTotalSupply, big.NewInt(10)).
		Return(contract.MethodMaxPerAddress, big.NewInt(3)).
		Return(contract.MethodBalanceOf, big.NewInt(balance)).
		Return(contract.MethodPrice, price)
	return f
}

// decodeSent decodes the calldata of the i-th submitted transaction.
func (f *fixture) decodeSent(t *testing.T, i int) (chain.TxRequest, string, []any) {
	t.Helper()
	sent := f.chain.Sent()
	require.Greater(t, len(sent), i)
	tx := sent[i]
	method, err := f.abi.MethodById(tx.Data[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(tx.Data[4:])
	require.NoError(t, err)
	return tx, method.RawName, args
}

type bridge struct {
	handle session.Handle
}

func (b *bridge) Connect(context.Context) (session.Handle, error) { return b.handle, nil }
func (b *bridge) Restore(context.Context) (session.Handle, error) { return b.handle, nil }
func (b *bridge) CachedProvider() bool                            { return true }

// recorder collects events; safe for use from the minting goroutine.
type recorder struct {
	mu  sync.Mutex
	got []events.Event
	ch  chan events.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan events.Event, 64)}
}

func (r *recorder) attach(bus *events.Bus) {
	bus.OnAny(func(e events.Event) {
		r.mu.Lock()
		r.got = append(r.got, e)
		r.mu.Unlock()
		select {
		case r.ch <- e:
		default:
		}
	})
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = nil
	for len(r.ch) > 0 {
		<-r.ch
	}
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.got...)
}

func (r *recorder) kinds() []events.Kind {
	var out []events.Kind
	for _, e := range r.all() {
		out = append(out, e.Kind())
	}
	return out
}

func (r *recorder) errEvents() []events.Error {
	var out []events.Error
	for _, e := range r.all() {
		if ev, ok := e.(events.Error); ok {
			out = append(out, ev)
		}
	}
	return out
}

// waitFor blocks until an event of kind arrives.
func (r *recorder) waitFor(t *testing.T, kind events.Kind) events.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-r.ch:
			if e.Kind() == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
			return nil
		}
	}
}

// abiJSON renders a minimal contract ABI from function signatures.
func abiJSON(t *testing.T, fns ...abiFunc) string {
	t.Helper()
	var out []map[string]any
	for _, f := range fns {
		params := func(types []string) []map[string]string {
			ps := make([]map[string]string, 0, len(types))
			for _, ty := range types {
				ps = append(ps, map[string]string{"name": "", "type": ty, "internalType": ty})
			}
			return ps
		}
		out = append(out, map[string]any{
			"type":            "function",
			"name":            f.name,
			"stateMutability": f.mutability,
			"inputs":          params(f.in),
			"outputs":         params(f.out),
		})
	}
	b, err := json.Marshal(out)
	require.NoError(t, err)
	return string(b)
}

type abiFunc struct {
	name       string
	mutability string
	in, out    []string
}

func view(name string, in []string, out string) abiFunc {
	return abiFunc{name: name, mutability: "view", in: in, out: []string{out}}
}

// minimalSaleFuncs is a collection without allowlist helpers, per-address
// cap or early purchase.
func minimalSaleFuncs() []abiFunc {
	return []abiFunc{
		view(contract.MethodIsPublicSaleActive, nil, "bool"),
		view(contract.MethodIsPreSaleActive, nil, "bool"),
		view(contract.MethodMaxTotalMint, nil, "uint256"),
		view(contract.MethodTotalSupply, nil, "uint256"),
		view(contract.MethodBalanceOf, []string{"address"}, "uint256"),
		view(contract.MethodPrice, nil, "uint256"),
		{name: contract.MethodPurchase, mutability: "payable", in: []string{"uint256"}},
	}
}
