// Package mint is the NFT mint SDK: it loads a project, checks whether an
// address may mint, submits the mint through the connected wallet and reports
// progress on an event bus.
package mint

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/allowlist"
	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/project"
	"github.com/Mohsinsiddi/w3mint/internal/sale"
	"github.com/Mohsinsiddi/w3mint/internal/session"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Default project API hosts.
const (
	DefaultAPIHost     = "https://api.hang.xyz"
	DefaultTestAPIHost = "https://test-api.hang.xyz"
)

// DefaultMaxPollDuration bounds how long a mint waits for its receipt.
const DefaultMaxPollDuration = 10 * time.Minute

// ClientFactory builds the read-only chain client for a project chain.
type ClientFactory func(chainID int64) (chain.Reader, error)

// Core is one mint SDK instance. Safe for concurrent use; at most one mint
// runs at a time.
type Core struct {
	logger   *zap.Logger
	bus      *events.Bus
	loader   *project.Loader
	registry *chain.Registry
	rpcs     map[int64][]string
	factory  ClientFactory
	bridge   session.Bridge
	session  *session.Manager

	pollInterval time.Duration
	maxPoll      time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	project *loaded

	minting sync.Mutex
}

// loaded is everything derived from one project load. Replaced wholesale.
type loaded struct {
	meta    *project.Metadata
	abi     abi.ABI
	caps    contract.Capabilities
	address common.Address
	chainID int64
	reader  *sale.Reader
	client  chain.Reader
	tree    *allowlist.Tree
}

// Option configures a Core.
type Option func(*Core)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Core) { c.logger = l }
}

// WithBus sets the event bus. By default the Core creates its own.
func WithBus(b *events.Bus) Option {
	return func(c *Core) { c.bus = b }
}

// WithAPIHost sets the project API host.
func WithAPIHost(host string) Option {
	return func(c *Core) { c.loader = project.NewLoader(host) }
}

// WithLoader sets the project loader.
func WithLoader(l *project.Loader) Option {
	return func(c *Core) { c.loader = l }
}

// WithRegistry sets the network table.
func WithRegistry(r *chain.Registry) Option {
	return func(c *Core) { c.registry = r }
}

// WithCustomRPCs sets RPC URLs that take precedence over the registry's.
func WithCustomRPCs(rpcs map[int64][]string) Option {
	return func(c *Core) { c.rpcs = rpcs }
}

// WithClientFactory replaces how the read client for a project chain is built.
func WithClientFactory(f ClientFactory) Option {
	return func(c *Core) { c.factory = f }
}

// WithBridge sets the wallet bridge. Without one, connects report that no
// wallet interface is available.
func WithBridge(b session.Bridge) Option {
	return func(c *Core) { c.bridge = b }
}

// WithPollInterval sets how often a pending receipt is re-requested.
func WithPollInterval(d time.Duration) Option {
	return func(c *Core) { c.pollInterval = d }
}

// WithMaxPollDuration bounds the receipt wait. 0 waits until Close.
func WithMaxPollDuration(d time.Duration) Option {
	return func(c *Core) { c.maxPoll = d }
}

// New creates a Core.
func New(opts ...Option) *Core {
	c := &Core{
		logger:       zap.NewNop(),
		registry:     chain.NewRegistry(),
		pollInterval: chain.DefaultPollInterval,
		maxPoll:      DefaultMaxPollDuration,
	}
	for _, o := range opts {
		o(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus()
	}
	if c.loader == nil {
		c.loader = project.NewLoader(DefaultAPIHost)
	}
	if c.factory == nil {
		c.factory = c.defaultClient
	}
	if c.bridge == nil {
		c.bridge = noBridge{}
	}
	c.session = session.NewManager(c.bridge, c.bus,
		session.WithLogger(c.logger.Named("session")),
		session.WithRegistry(c.registry))
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Bus returns the event bus subscribers attach to.
func (c *Core) Bus() *events.Bus { return c.bus }

// Session returns the wallet session.
func (c *Core) Session() *session.Manager { return c.session }

// Close stops receipt polling, disconnects the wallet session and removes
// every event subscription.
func (c *Core) Close() {
	c.cancel()
	c.session.Close()
	c.bus.UnsubscribeAll()
}

// LoadMetadata fetches the project and prepares the contract for reads. On
// failure it emits StateChange{false} and a PROJECT_INFO_FETCH_ERROR.
func (c *Core) LoadMetadata(ctx context.Context, slug string) error {
	meta, err := c.loader.Fetch(ctx, slug)
	if err != nil {
		return c.failLoad(fmt.Errorf("loading project %q: %w", slug, err))
	}
	if err := c.SetMetadata(meta); err != nil {
		return err
	}
	c.logger.Info("project loaded",
		zap.String("slug", slug),
		zap.String("contract", meta.Contract.Address),
		zap.Int64("chain_id", meta.Contract.ChainID))
	return nil
}

// SetMetadata installs already fetched project metadata, as LoadMetadata
// does after a successful fetch.
func (c *Core) SetMetadata(meta *project.Metadata) error {
	if err := meta.Validate(); err != nil {
		return c.failLoad(err)
	}
	parsed, err := contract.ParseABI(meta.Contract.ABI)
	if err != nil {
		return c.failLoad(fmt.Errorf("parsing contract ABI: %w", err))
	}
	client, err := c.factory(meta.Contract.ChainID)
	if err != nil {
		return c.failLoad(fmt.Errorf("chain %d client: %w", meta.Contract.ChainID, err))
	}

	caps := contract.ResolveCapabilities(parsed)
	addr := meta.ContractAddress()
	st := &loaded{
		meta:    meta,
		abi:     parsed,
		caps:    caps,
		address: addr,
		chainID: meta.Contract.ChainID,
		client:  client,
		reader:  sale.NewReader(contract.NewCaller(client, addr, parsed), caps),
		tree:    allowlist.New(meta.Contract.Whitelist),
	}

	c.mu.Lock()
	c.project = st
	c.mu.Unlock()

	c.session.SetRequiredChain(st.chainID)
	c.logger.Debug("contract capabilities", zap.Any("capabilities", caps), zap.Int("allowlist", st.tree.Len()))
	c.bus.Emit(events.StateChange{IsReady: true})
	return nil
}

func (c *Core) failLoad(err error) error {
	c.mu.Lock()
	c.project = nil
	c.mu.Unlock()

	c.logger.Warn("project load failed", zap.Error(err))
	c.bus.Emit(events.StateChange{IsReady: false})
	c.bus.Emit(events.NewError(events.ErrProjectInfoFetch))
	return err
}

// Ready reports whether project metadata is loaded.
func (c *Core) Ready() bool {
	_, err := c.state()
	return err == nil
}

// Metadata returns the loaded project metadata.
func (c *Core) Metadata() (*project.Metadata, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.meta, nil
}

// Capabilities returns the optional functions the contract exposes.
func (c *Core) Capabilities() (contract.Capabilities, error) {
	st, err := c.state()
	if err != nil {
		return contract.Capabilities{}, err
	}
	return st.caps, nil
}

// Chain returns the registry entry of the project chain, if it is known.
func (c *Core) Chain() (*chain.Chain, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return c.registry.GetByChainID(st.chainID)
}

func (c *Core) state() (*loaded, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.project == nil {
		return nil, ErrNotReady
	}
	return c.project, nil
}

// defaultClient dials the first configured RPC of the chain, custom URLs first.
func (c *Core) defaultClient(chainID int64) (chain.Reader, error) {
	if urls := c.rpcs[chainID]; len(urls) > 0 {
		return chain.NewEVMClient(urls[0]), nil
	}
	ch, err := c.registry.GetByChainID(chainID)
	if err != nil {
		return nil, err
	}
	if len(ch.RPCURLs) == 0 {
		return nil, fmt.Errorf("chain %s has no RPC URL", ch.Name)
	}
	return chain.NewEVMClient(ch.RPCURLs[0]), nil
}

// --- wallet session ---

// Connect asks the wallet bridge for a fresh connection.
func (c *Core) Connect(ctx context.Context) (session.Result, error) {
	return c.session.Connect(ctx)
}

// Autoconnect restores the cached wallet connection, if any.
func (c *Core) Autoconnect(ctx context.Context) (session.Result, error) {
	return c.session.Autoconnect(ctx)
}

// --- sale getters ---

// IsPublicSaleActive reports whether the public sale is open.
func (c *Core) IsPublicSaleActive(ctx context.Context) (bool, error) {
	st, err := c.state()
	if err != nil {
		return false, err
	}
	return st.reader.PublicSaleActive(ctx)
}

// IsPresaleActive reports whether the presale is open.
func (c *Core) IsPresaleActive(ctx context.Context) (bool, error) {
	st, err := c.state()
	if err != nil {
		return false, err
	}
	return st.reader.PresaleActive(ctx)
}

// TotalMintable returns the collection's supply cap.
func (c *Core) TotalMintable(ctx context.Context) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.TotalMintable(ctx)
}

// TotalMinted returns the number of tokens minted so far.
func (c *Core) TotalMinted(ctx context.Context) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.TotalMinted(ctx)
}

// TotalMintedPadded is TotalMinted plus the project's display padding.
func (c *Core) TotalMintedPadded(ctx context.Context) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	n, err := st.reader.TotalMinted(ctx)
	if err != nil {
		return nil, err
	}
	return n.Add(n, big.NewInt(st.meta.PadNoMinted)), nil
}

// MaxMintPerAddress returns the per-address presale cap.
func (c *Core) MaxMintPerAddress(ctx context.Context) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.MaxPerAddress(ctx)
}

// BalanceOf returns how many tokens addr holds.
func (c *Core) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.BalanceOf(ctx, addr)
}

// BalanceOfCurrentWallet returns the token balance of the connected account.
func (c *Core) BalanceOfCurrentWallet(ctx context.Context) (*big.Int, error) {
	addr, ok := c.session.CurrentAddress()
	if !ok {
		return nil, ErrNotConnected
	}
	return c.BalanceOf(ctx, addr)
}

// Price returns the per-token price in wei.
func (c *Core) Price(ctx context.Context) (*big.Int, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.Price(ctx)
}

// PriceFormatted returns the per-token price in whole native units.
func (c *Core) PriceFormatted(ctx context.Context) (string, error) {
	p, err := c.Price(ctx)
	if err != nil {
		return "", err
	}
	return chain.FormatEther(p), nil
}

// Status reads a display overview of the sale.
func (c *Core) Status(ctx context.Context) (*sale.Status, error) {
	st, err := c.state()
	if err != nil {
		return nil, err
	}
	return st.reader.ReadStatus(ctx)
}

// CrossMintEnabled reports whether card checkout is available for the project.
func (c *Core) CrossMintEnabled() (bool, error) {
	st, err := c.state()
	if err != nil {
		return false, err
	}
	return st.meta.CrossmintEnabled(), nil
}

// noBridge stands in when no wallet bridge is configured.
type noBridge struct{}

func (noBridge) Connect(context.Context) (session.Handle, error) { return nil, nil }
func (noBridge) Restore(context.Context) (session.Handle, error) { return nil, nil }
func (noBridge) CachedProvider() bool                            { return false }
