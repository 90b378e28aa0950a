package chain

import (
	"errors"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// NativeCurrency describes a chain's gas token.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Chain holds the static metadata for a single EVM network.
type Chain struct {
	Name           string         `json:"name"`
	DisplayName    string         `json:"display_name"`
	ChainID        int64          `json:"chain_id"`
	NativeCurrency NativeCurrency `json:"native_currency"`
	RPCURLs        []string       `json:"rpc_urls"`
	ExplorerURL    string         `json:"explorer_url"`
	Testnet        bool           `json:"testnet"`
}

// AddChainParams is the parameter object of wallet_addEthereumChain (EIP-3085).
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// SwitchChainParams is the parameter object of wallet_switchEthereumChain (EIP-3326).
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// Registry is the static network lookup table.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry creates the registry of all supported networks.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every chain sorted by chain id.
func (r *Registry) All() []Chain {
	out := make([]Chain, len(r.chains))
	copy(out, r.chains)
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// GetByName finds a chain by its slug name (e.g. "polygon", "mumbai").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a chain by its numeric chain id.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// HexChainID returns the 0x-prefixed hex chain id used by wallet RPC methods.
func (c *Chain) HexChainID() string {
	return HexChainID(c.ChainID)
}

// HexChainID formats id the way wallets expect it.
func HexChainID(id int64) string {
	return hexutil.EncodeBig(big.NewInt(id))
}

// AddParams renders the wallet_addEthereumChain parameters for this chain.
func (c *Chain) AddParams() AddChainParams {
	p := AddChainParams{
		ChainID:        c.HexChainID(),
		ChainName:      c.DisplayName,
		NativeCurrency: c.NativeCurrency,
		RPCURLs:        append([]string(nil), c.RPCURLs...),
	}
	if c.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{c.ExplorerURL}
	}
	return p
}

// TxURL returns the explorer page for a transaction hash.
func (c *Chain) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(c.ExplorerURL, "/") + "/tx/" + hash
}

// AddressURL returns the explorer page for an address.
func (c *Chain) AddressURL(addr string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(c.ExplorerURL, "/") + "/address/" + addr
}

// --- chain data ---

var (
	eth   = NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}
	matic = NativeCurrency{Name: "MATIC", Symbol: "MATIC", Decimals: 18}
	pol   = NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18}
)

func allChains() []Chain {
	return []Chain{
		{
			Name: "ethereum", DisplayName: "Ethereum Mainnet", ChainID: 1, NativeCurrency: eth,
			RPCURLs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			ExplorerURL: "https://etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111, NativeCurrency: eth, Testnet: true,
			RPCURLs:     []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			ExplorerURL: "https://sepolia.etherscan.io",
		},
		{
			Name: "polygon", DisplayName: "Polygon Mainnet (Matic)", ChainID: 137, NativeCurrency: matic,
			RPCURLs:     []string{"https://polygon-rpc.com", "https://polygon-bor-rpc.publicnode.com"},
			ExplorerURL: "https://www.polygonscan.com",
		},
		{
			Name: "mumbai", DisplayName: "Polygon Testnet (Matic)", ChainID: 80001, NativeCurrency: matic, Testnet: true,
			RPCURLs:     []string{"https://rpc-mumbai.maticvigil.com"},
			ExplorerURL: "https://mumbai.polygonscan.com",
		},
		{
			Name: "amoy", DisplayName: "Polygon Amoy", ChainID: 80002, NativeCurrency: pol, Testnet: true,
			RPCURLs:     []string{"https://rpc-amoy.polygon.technology"},
			ExplorerURL: "https://amoy.polygonscan.com",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453, NativeCurrency: eth,
			RPCURLs:     []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			ExplorerURL: "https://basescan.org",
		},
		{
			Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532, NativeCurrency: eth, Testnet: true,
			RPCURLs:     []string{"https://sepolia.base.org"},
			ExplorerURL: "https://sepolia.basescan.org",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161, NativeCurrency: eth,
			RPCURLs:     []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			ExplorerURL: "https://arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "OP Mainnet", ChainID: 10, NativeCurrency: eth,
			RPCURLs:     []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			ExplorerURL: "https://optimistic.etherscan.io",
		},
	}
}
