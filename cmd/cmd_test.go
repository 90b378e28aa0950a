package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
	"github.com/Mohsinsiddi/w3mint/internal/project"
	"github.com/Mohsinsiddi/w3mint/internal/rpc"
	"github.com/Mohsinsiddi/w3mint/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat's first two test accounts.
const (
	testKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	otherAddress = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// newTestDir isolates the config dir, keyring and session cache of a test.
func newTestDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(envKeyringPassword, "cmd-test")
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv(config.EnvDir, "")
	return dir
}

// run executes the root command in-process with stdin and returns combined
// output.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	walletKeyFlag, walletYes = "", false
	proofJSON, configSetHostTest = false, false
	mintQuantity, mintWallet, mintYes = 1, "", false
	testAPI, verbose = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	c, err := config.Load(dir)
	require.NoError(t, err)
	return c
}

func TestConfigCommands(t *testing.T) {
	dir := newTestDir(t)

	out, err := run(t, dir, "", "config", "set-mode", "test")
	require.NoError(t, err)
	assert.Contains(t, out, mint.DefaultTestAPIHost)

	_, err = run(t, dir, "", "config", "set-rpc-algorithm", "fastest")
	require.NoError(t, err)
	_, err = run(t, dir, "", "config", "set-host", "--test", "http://localhost:9999")
	require.NoError(t, err)
	_, err = run(t, dir, "", "config", "set-currency", "EUR")
	require.NoError(t, err)

	c := loadConfig(t, dir)
	assert.Equal(t, config.ModeTest, c.Mode)
	assert.Equal(t, rpc.AlgorithmFastest, c.Algorithm())
	assert.Equal(t, "http://localhost:9999", c.TestAPIHost)
	assert.Equal(t, "eur", c.Currency)

	out, err = run(t, dir, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "test"`)
	assert.Contains(t, out, "Project API: http://localhost:9999")
}

func TestConfigCommandErrors(t *testing.T) {
	dir := newTestDir(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"config", "set-mode", "staging"}},
		{"bad algorithm", []string{"config", "set-rpc-algorithm", "random"}},
		{"bad host", []string{"config", "set-host", "ftp://example.com"}},
		{"unknown chain", []string{"config", "add-rpc", "atlantis", "https://rpc.example.com"}},
		{"bad rpc url", []string{"config", "add-rpc", "polygon", "not a url"}},
		{"remove missing rpc", []string{"config", "remove-rpc", "polygon", "https://nope.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestCustomRPCShowsInNetworkList(t *testing.T) {
	dir := newTestDir(t)

	_, err := run(t, dir, "", "config", "add-rpc", "polygon", "https://polygon.example.com")
	require.NoError(t, err)

	out, err := run(t, dir, "", "network", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Polygon Mainnet")
	assert.Contains(t, out, "https://polygon.example.com (custom)")

	_, err = run(t, dir, "", "config", "remove-rpc", "polygon", "https://polygon.example.com")
	require.NoError(t, err)
	assert.Empty(t, loadConfig(t, dir).GetRPCs("polygon"))
}

func TestWalletCommands(t *testing.T) {
	dir := newTestDir(t)

	_, err := run(t, dir, "", "wallet", "add", "watcher", otherAddress)
	require.NoError(t, err)
	_, err = run(t, dir, "", "wallet", "add", "signer", "--key", testKey)
	require.NoError(t, err)

	out, err := run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "watcher")
	assert.Contains(t, out, testAddress)
	assert.Contains(t, out, "2 wallet(s) configured")

	_, err = run(t, dir, "", "wallet", "use", "signer")
	require.NoError(t, err)
	assert.Equal(t, "signer", loadConfig(t, dir).DefaultWallet)

	// Declining the prompt keeps the wallet.
	out, err = run(t, dir, "n\n", "wallet", "remove", "signer")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	_, err = run(t, dir, "y\n", "wallet", "remove", "signer")
	require.NoError(t, err)
	assert.Empty(t, loadConfig(t, dir).DefaultWallet)

	out, err = run(t, dir, "", "wallet", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "signer")
}

func TestWalletAddErrors(t *testing.T) {
	dir := newTestDir(t)

	_, err := run(t, dir, "", "wallet", "add", "nobody")
	assert.ErrorContains(t, err, "address required")

	_, err = run(t, dir, "", "wallet", "add", "bad", "0x1234")
	assert.Error(t, err)

	_, err = run(t, dir, "", "wallet", "add", "dup", otherAddress)
	require.NoError(t, err)
	_, err = run(t, dir, "", "wallet", "add", "dup", otherAddress)
	assert.ErrorIs(t, err, wallet.ErrWalletExists)

	_, err = run(t, dir, "", "wallet", "use", "ghost")
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestWalletImportReadsStdin(t *testing.T) {
	dir := newTestDir(t)

	out, err := run(t, dir, "0x"+testKey+"\n", "wallet", "import", "piped")
	require.NoError(t, err)
	assert.Contains(t, out, testAddress)

	_, err = run(t, dir, "", "wallet", "import", "empty")
	assert.ErrorContains(t, err, "no private key")
}

func TestWalletDisconnectClearsSession(t *testing.T) {
	dir := newTestDir(t)
	cache := wallet.NewSessionCache(wallet.DefaultSessionPath())
	require.NoError(t, cache.Save("signer"))

	_, err := run(t, dir, "", "wallet", "disconnect")
	require.NoError(t, err)

	_, ok := cache.Load()
	assert.False(t, ok)
}

// projectAPI serves one project under /api/nft/{slug}.
func projectAPI(t *testing.T, slug string, meta project.Metadata) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/nft/"+slug {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"nft_project": meta}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProofCommand(t *testing.T) {
	dir := newTestDir(t)
	srv := projectAPI(t, "demo", project.Metadata{Contract: project.Contract{
		Address:   "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		Chain:     "mumbai",
		ChainID:   80001,
		Whitelist: []string{testAddress, otherAddress},
	}})
	_, err := run(t, dir, "", "config", "set-host", srv.URL)
	require.NoError(t, err)

	out, err := run(t, dir, "", "proof", "demo", testAddress, "--json")
	require.NoError(t, err)
	var res proofOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Listed)
	assert.Len(t, res.Proof, 1)
	assert.NotEmpty(t, res.Root)

	out, err = run(t, dir, "", "proof", "demo", "0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	require.NoError(t, err)
	assert.Contains(t, out, "is not on the allowlist")

	_, err = run(t, dir, "", "proof", "missing", testAddress)
	assert.ErrorContains(t, err, `loading project "missing"`)

	_, err = run(t, dir, "", "proof", "demo", "not-an-address")
	assert.ErrorContains(t, err, "invalid address")
}

func TestMintRejectsZeroQuantity(t *testing.T) {
	dir := newTestDir(t)
	_, err := run(t, dir, "", "mint", "demo", "-n", "0")
	assert.ErrorIs(t, err, mint.ErrInvalidQuantity)
}

func TestErrLine(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"rejection",
			fmt.Errorf("checking: %w", &mint.Rejection{Type: events.ErrPresaleInactive}),
			events.ErrPresaleInactive.Message(),
		},
		{"wallet refusal", &chain.RPCError{Code: chain.CodeUserRejected, Message: "User denied"}, "transaction rejected in the wallet"},
		{"picker dismissed", wallet.ErrSelectionCancelled, "Cancelled."},
		{"anything else", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, errLine(tt.err), tt.want)
		})
	}
}

func TestNamedSelector(t *testing.T) {
	wallets := []*wallet.Wallet{{Name: "a"}, {Name: "b"}}

	w, err := namedSelector("b")(context.Background(), wallets)
	require.NoError(t, err)
	assert.Equal(t, "b", w.Name)

	_, err = namedSelector("c")(context.Background(), wallets)
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestResolveAddressHex(t *testing.T) {
	addr, err := resolveAddress(context.Background(), strings.ToLower(testAddress))
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr.Hex())

	_, err = resolveAddress(context.Background(), "vitalik")
	assert.ErrorContains(t, err, "invalid address")
}

func TestAccountLabelKeepsTypedName(t *testing.T) {
	addr := common.HexToAddress(testAddress)
	label := accountLabel(context.Background(), "Alice.ETH", addr)
	assert.Contains(t, label, testAddress)
	assert.Contains(t, label, "(alice.eth)")
}

func TestReadSecret(t *testing.T) {
	got, err := readSecret(strings.NewReader("  abc \nrest"), &bytes.Buffer{}, "Key: ")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = readSecret(strings.NewReader("no-newline"), &bytes.Buffer{}, "Key: ")
	require.NoError(t, err)
	assert.Equal(t, "no-newline", got)
}

func TestParseHost(t *testing.T) {
	for _, ok := range []string{"https://api.hang.xyz", "http://127.0.0.1:8080"} {
		_, err := parseHost(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"api.hang.xyz", "ftp://x", "https://", ""} {
		_, err := parseHost(bad)
		assert.Error(t, err, bad)
	}
}

func TestWalletTypeLabel(t *testing.T) {
	assert.Equal(t, "signing", walletTypeLabel(wallet.TypeSigning))
	assert.Equal(t, "watch-only", walletTypeLabel(wallet.TypeWatchOnly))
}
