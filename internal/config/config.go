package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
	"github.com/Mohsinsiddi/w3mint/internal/rpc"
)

// EnvDir overrides the config directory when no explicit dir is given.
const EnvDir = "W3MINT_CONFIG_DIR"

const (
	defaultPollIntervalMS = 500
	defaultMaxPollSeconds = 600

	configFile  = "config.json"
	walletsFile = "wallets.json"
	keysDir     = "keys"
)

// ErrInvalidMode is returned by SetMode for anything but prod or test.
var ErrInvalidMode = errors.New("mode must be prod or test")

// Load reads config from dir (or creates defaults). dir defaults to
// $W3MINT_CONFIG_DIR, then ~/.w3mint.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3mint")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// SetMode switches between the prod and test project API.
func (c *Config) SetMode(mode string) error {
	if mode != ModeProd && mode != ModeTest {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	c.Mode = mode
	return nil
}

// ActiveAPIHost returns the project API host for the current mode.
func (c *Config) ActiveAPIHost() string {
	if c.Mode == ModeTest {
		return c.TestAPIHost
	}
	return c.APIHost
}

// SetRPCAlgorithm sets how a read endpoint is chosen among a chain's RPCs.
func (c *Config) SetRPCAlgorithm(algo string) error {
	a, err := rpc.ParseAlgorithm(algo)
	if err != nil {
		return err
	}
	c.RPCAlgorithm = string(a)
	return nil
}

// Algorithm returns the RPC selection algorithm, failover when unset or
// unknown.
func (c *Config) Algorithm() rpc.Algorithm {
	a, err := rpc.ParseAlgorithm(c.RPCAlgorithm)
	if err != nil {
		return rpc.AlgorithmFailover
	}
	return a
}

// PollInterval is the receipt polling interval.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return defaultPollIntervalMS * time.Millisecond
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// MaxPoll is the ceiling on receipt polling; zero means no ceiling.
func (c *Config) MaxPoll() time.Duration {
	if c.MaxPollSeconds < 0 {
		return 0
	}
	return time.Duration(c.MaxPollSeconds) * time.Second
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a chain.
func (c *Config) GetRPCs(chain string) []string {
	return c.CustomRPCs[chain]
}

// RPCsByChainID resolves the chain names of CustomRPCs against reg.
// Names the registry does not know are skipped.
func (c *Config) RPCsByChainID(reg *chain.Registry) map[int64][]string {
	out := make(map[int64][]string, len(c.CustomRPCs))
	for name, urls := range c.CustomRPCs {
		ch, err := reg.GetByName(name)
		if err != nil || len(urls) == 0 {
			continue
		}
		out[ch.ChainID] = append(out[ch.ChainID], urls...)
	}
	return out
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet list is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// KeysDir is where the file keyring backend keeps encrypted keys.
func (c *Config) KeysDir() string {
	return filepath.Join(c.configDir, keysDir)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		APIHost:        mint.DefaultAPIHost,
		TestAPIHost:    mint.DefaultTestAPIHost,
		Mode:           ModeProd,
		PollIntervalMS: defaultPollIntervalMS,
		MaxPollSeconds: defaultMaxPollSeconds,
		CustomRPCs:     make(map[string][]string),
		RPCAlgorithm:   string(rpc.AlgorithmFailover),
		Currency:       "usd",
		configDir:      dir,
	}
}
