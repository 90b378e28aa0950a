// Package ens resolves ENS names against the mainnet registry.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// RegistryAddress is the ENS registry, the same on mainnet and Sepolia.
var RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

// ChainID is the chain ENS names resolve on.
const ChainID = 1

// ErrNoRecord is returned when a name or address has no ENS record.
var ErrNoRecord = errors.New("no ENS record")

var (
	selResolver = selector("resolver(bytes32)")
	selAddr     = selector("addr(bytes32)")
	selName     = selector("name(bytes32)")

	stringArgs = abi.Arguments{{Type: mustType("string")}}
)

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	s = strings.ToLower(s)
	return len(s) > len(".eth") && strings.HasSuffix(s, ".eth") && !strings.HasPrefix(s, "0x")
}

// Resolve returns the address record of name.
func Resolve(ctx context.Context, r chain.Reader, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	node := Namehash(name)

	resolver, err := lookupResolver(ctx, r, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %q: %w", name, err)
	}
	out, err := call(ctx, r, resolver, selAddr, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying resolver of %q: %w", name, err)
	}
	addr := wordAddress(out)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s has no address", ErrNoRecord, name)
	}
	return addr, nil
}

// ReverseLookup returns the primary name of addr via addr.reverse.
func ReverseLookup(ctx context.Context, r chain.Reader, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")

	resolver, err := lookupResolver(ctx, r, node)
	if err != nil {
		return "", fmt.Errorf("reverse lookup of %s: %w", addr.Hex(), err)
	}
	out, err := call(ctx, r, resolver, selName, node)
	if err != nil {
		return "", fmt.Errorf("querying reverse resolver: %w", err)
	}
	vals, err := stringArgs.Unpack(out)
	if err != nil || len(vals) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoRecord, addr.Hex())
	}
	name, _ := vals[0].(string)
	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRecord, addr.Hex())
	}
	return name, nil
}

// PrimaryName returns the reverse record of addr once the name resolves back
// to addr. A claimed name pointing elsewhere is ErrNoRecord.
func PrimaryName(ctx context.Context, r chain.Reader, addr common.Address) (string, error) {
	name, err := ReverseLookup(ctx, r, addr)
	if err != nil {
		return "", err
	}
	fwd, err := Resolve(ctx, r, name)
	if err != nil {
		return "", err
	}
	if fwd != addr {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrNoRecord, name, fwd.Hex())
	}
	return name, nil
}

// Namehash implements the EIP-137 namehash. Labels are hashed as given;
// callers normalise case.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := keccak256([]byte(labels[i]))
		copy(node[:], keccak256(node[:], label))
	}
	return node
}

func lookupResolver(ctx context.Context, r chain.Reader, node common.Hash) (common.Address, error) {
	out, err := call(ctx, r, RegistryAddress, selResolver, node)
	if err != nil {
		return common.Address{}, err
	}
	resolver := wordAddress(out)
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no resolver set", ErrNoRecord)
	}
	return resolver, nil
}

func call(ctx context.Context, r chain.Reader, to common.Address, sel []byte, node common.Hash) ([]byte, error) {
	data := append(append([]byte(nil), sel...), node[:]...)
	return r.CallContract(ctx, chain.CallMsg{To: to, Data: data})
}

// wordAddress reads an address from the first ABI word of out.
func wordAddress(out []byte) common.Address {
	if len(out) < 32 {
		return common.Address{}
	}
	return common.BytesToAddress(out[12:32])
}

func selector(sig string) []byte {
	return keccak256([]byte(sig))[:4]
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
