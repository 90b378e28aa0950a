package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/ens"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
	"github.com/Mohsinsiddi/w3mint/internal/price"
	"github.com/Mohsinsiddi/w3mint/internal/rpc"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/Mohsinsiddi/w3mint/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// envKeyringPassword, when set, selects the encrypted file keyring in the
// config dir instead of the OS keychain.
const envKeyringPassword = "W3MINT_KEYRING_PASSWORD"

func newKeystore() (wallet.KeystoreBackend, error) {
	if pw := os.Getenv(envKeyringPassword); pw != "" {
		return wallet.NewFileKeystore(cfg.KeysDir(), keyring.FixedStringPrompt(pw))
	}
	return wallet.DefaultKeystore(), nil
}

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() (*wallet.Manager, error) {
	ks, err := newKeystore()
	if err != nil {
		return nil, err
	}
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeystore(ks),
	), nil
}

// newCore builds a mint.Core from the config. selector nil means the
// interactive wallet picker.
func newCore(selector wallet.Selector) (*mint.Core, error) {
	reg := chain.NewRegistry()
	rpcs := cfg.RPCsByChainID(reg)
	endpoints := wallet.RegistryEndpoints(reg, rpcs)

	mgr, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	if selector == nil {
		selector = ui.WalletSelector
	}
	bridge := wallet.NewBridge(mgr, wallet.NewSessionCache(wallet.DefaultSessionPath()), selector, wallet.ProviderConfig{
		ChainID:   cfg.WalletChainID,
		Endpoints: endpoints,
		Logger:    logger.Named("wallet"),
	})

	return mint.New(
		mint.WithLogger(logger.Named("mint")),
		mint.WithAPIHost(cfg.ActiveAPIHost()),
		mint.WithRegistry(reg),
		mint.WithCustomRPCs(rpcs),
		mint.WithClientFactory(rpc.NewSelector(endpoints, cfg.Algorithm(), logger.Named("rpc")).Reader),
		mint.WithBridge(bridge),
		mint.WithPollInterval(cfg.PollInterval()),
		mint.WithMaxPollDuration(cfg.MaxPoll()),
	), nil
}

// loadProject builds a Core and loads slug into it. The caller closes the
// Core.
func loadProject(ctx context.Context, slug string, selector wallet.Selector) (*mint.Core, error) {
	core, err := newCore(selector)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, config.ProjectFetchTimeout)
	defer cancel()
	if err := core.LoadMetadata(ctx, slug); err != nil {
		core.Close()
		return nil, err
	}
	return core, nil
}

// namedSelector picks the wallet called name without prompting.
func namedSelector(name string) wallet.Selector {
	return func(_ context.Context, wallets []*wallet.Wallet) (*wallet.Wallet, error) {
		for _, w := range wallets {
			if w.Name == name {
				return w, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", wallet.ErrWalletNotFound, name)
	}
}

// readSelector picks read endpoints over the configured and built-in RPCs.
func readSelector() *rpc.Selector {
	reg := chain.NewRegistry()
	endpoints := wallet.RegistryEndpoints(reg, cfg.RPCsByChainID(reg))
	return rpc.NewSelector(endpoints, cfg.Algorithm(), logger.Named("rpc"))
}

// resolveAddress accepts a hex address or an ENS name.
func resolveAddress(ctx context.Context, s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if !ens.IsName(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	r, err := readSelector().Reader(ens.ChainID)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := ens.Resolve(ctx, r, s)
	if err != nil {
		return common.Address{}, err
	}
	logger.Debug("ens name resolved", zap.String("name", s), zap.String("address", addr.Hex()))
	return addr, nil
}

// accountLabel renders addr with its ENS name when one is known: the name
// the user typed, else the verified primary name. Lookup failures are
// logged and leave the bare address.
func accountLabel(ctx context.Context, input string, addr common.Address) string {
	label := ui.Addr(addr.Hex())
	if ens.IsName(input) {
		return label + " (" + strings.ToLower(strings.TrimSpace(input)) + ")"
	}
	r, err := readSelector().Reader(ens.ChainID)
	if err != nil {
		return label
	}
	ctx, cancel := context.WithTimeout(ctx, config.ENSLookupTimeout)
	defer cancel()
	name, err := ens.PrimaryName(ctx, r, addr)
	if err != nil {
		logger.Debug("no primary ENS name", zap.String("address", addr.Hex()), zap.Error(err))
		return label
	}
	return label + " (" + name + ")"
}

// fiatNote renders wei of ch's token in the configured currency, e.g.
// "≈ $1.20", or "" when no estimate is available.
func fiatNote(ctx context.Context, ch *chain.Chain, wei *big.Int) string {
	if cfg.Currency == "" || wei == nil || ch.Testnet {
		return ""
	}
	f := price.NewFetcher(cfg.Currency)
	v, err := f.Value(ctx, ch, wei)
	if err != nil {
		logger.Debug("no fiat estimate", zap.Error(err))
		return ""
	}
	return "≈ " + price.Format(v, f.Currency())
}

// errLine renders a command failure for the terminal.
func errLine(err error) string {
	if t, ok := mint.RejectionType(err); ok {
		return ui.Err(t.Message())
	}
	if chain.ErrorCode(err) == chain.CodeUserRejected {
		return ui.Err("transaction rejected in the wallet")
	}
	if errors.Is(err, wallet.ErrSelectionCancelled) {
		return ui.Meta("Cancelled.")
	}
	return ui.Err(err.Error())
}
