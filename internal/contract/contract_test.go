package contract_test

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3mint/internal/chaintest"
	"github.com/Mohsinsiddi/w3mint/internal/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	collectionAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	buyer          = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func collectionABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := contract.BuiltinABI(contract.CollectionBuiltin)
	require.NoError(t, err)
	return parsed
}

// ---------------------------------------------------------------------------
// builtins + parsing
// ---------------------------------------------------------------------------

func TestCollectionBuiltinRegistered(t *testing.T) {
	b, ok := contract.GetBuiltin(contract.CollectionBuiltin)
	require.True(t, ok)
	assert.NotEmpty(t, b.Name)

	parsed := collectionABI(t)
	for _, name := range []string{
		contract.MethodIsPublicSaleActive, contract.MethodIsPreSaleActive,
		contract.MethodMaxTotalMint, contract.MethodMaxPerAddress,
		contract.MethodTotalSupply, contract.MethodBalanceOf, contract.MethodPrice,
		contract.MethodPurchase, contract.MethodEarlyPurchase, contract.MethodOnEarlyPurchaseList,
	} {
		assert.Contains(t, parsed.Methods, name)
	}
}

func TestAllBuiltinsSorted(t *testing.T) {
	contract.RegisterBuiltin(contract.BuiltinKind{ID: "zzz-test", ABI: "[]"})
	contract.RegisterBuiltin(contract.BuiltinKind{ID: "aaa-test", ABI: "[]"})

	all := contract.AllBuiltins()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].ID, all[i].ID)
	}
}

func TestBuiltinABIUnknown(t *testing.T) {
	_, err := contract.BuiltinABI("nope")
	assert.Error(t, err)
}

func TestParseABIEmptyFallsBackToCollection(t *testing.T) {
	for _, raw := range []string{"", "null", `""`, `"  "`} {
		parsed, err := contract.ParseABI([]byte(raw))
		require.NoError(t, err, "raw=%q", raw)
		assert.Contains(t, parsed.Methods, contract.MethodPurchase)
	}
}

func TestParseABIArrayAndString(t *testing.T) {
	arr := `[{"inputs":[],"name":"PRICE","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

	parsed, err := contract.ParseABI([]byte(arr))
	require.NoError(t, err)
	assert.Len(t, parsed.Methods, 1)

	quoted := `"` + strings.ReplaceAll(arr, `"`, `\"`) + `"`
	parsed, err = contract.ParseABI([]byte(quoted))
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "PRICE")
}

func TestParseABIInvalid(t *testing.T) {
	_, err := contract.ParseABI([]byte(`[{"type":"function","name":`))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// capabilities
// ---------------------------------------------------------------------------

func TestResolveCapabilitiesCollection(t *testing.T) {
	caps := contract.ResolveCapabilities(collectionABI(t))
	assert.Equal(t, contract.Capabilities{
		HasPublicSaleFlag:       true,
		HasNativeAllowlistCheck: false,
		HasProofAllowlistCheck:  true,
		HasEarlyPurchase:        true,
		HasPerAddressCap:        true,
	}, caps)
}

func TestResolveCapabilitiesRequiresMatchingInputs(t *testing.T) {
	parsed, err := contract.ParseABI([]byte(`[
	  {"inputs":[{"name":"a","type":"uint256"}],"name":"onPreSaleAllowList","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	  {"inputs":[{"name":"a","type":"address"}],"name":"onPreSaleAllowList","outputs":[{"name":"","type":"bool"}],"stateMutability":"view","type":"function"},
	  {"inputs":[{"name":"n","type":"uint256"}],"name":"earlyPurchase","outputs":[],"stateMutability":"payable","type":"function"}
	]`))
	require.NoError(t, err)

	caps := contract.ResolveCapabilities(parsed)
	assert.True(t, caps.HasNativeAllowlistCheck, "address overload counts")
	assert.False(t, caps.HasEarlyPurchase, "earlyPurchase without a proof argument does not count")
	assert.False(t, caps.HasPublicSaleFlag)
	assert.False(t, caps.HasPerAddressCap)
}

// ---------------------------------------------------------------------------
// caller
// ---------------------------------------------------------------------------

func TestCallerUintBool(t *testing.T) {
	parsed := collectionABI(t)
	c := chaintest.New(137, parsed).
		Return(contract.MethodPrice, big.NewInt(5e16)).
		Return(contract.MethodIsPreSaleActive, true).
		Handle(contract.MethodBalanceOf, func(args []any) ([]any, error) {
			if args[0].(common.Address) == buyer {
				return []any{big.NewInt(3)}, nil
			}
			return []any{big.NewInt(0)}, nil
		})

	caller := contract.NewCaller(c, collectionAddr, parsed)
	ctx := context.Background()

	price, err := caller.Uint(ctx, contract.MethodPrice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5e16), price)

	active, err := caller.Bool(ctx, contract.MethodIsPreSaleActive)
	require.NoError(t, err)
	assert.True(t, active)

	bal, err := caller.Uint(ctx, contract.MethodBalanceOf, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), bal.Int64())
	assert.Equal(t, collectionAddr, caller.Address())
}

func TestCallerProofArgument(t *testing.T) {
	parsed := collectionABI(t)
	var gotProof [][32]byte
	c := chaintest.New(1, parsed).Handle(contract.MethodOnEarlyPurchaseList, func(args []any) ([]any, error) {
		gotProof = args[1].([][32]byte)
		return []any{true}, nil
	})

	proof := [][32]byte{{1}, {2}}
	ok, err := contract.NewCaller(c, collectionAddr, parsed).Bool(context.Background(), contract.MethodOnEarlyPurchaseList, buyer, proof)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, proof, gotProof)
}

func TestCallerErrors(t *testing.T) {
	parsed := collectionABI(t)
	boom := errors.New("boom")
	c := chaintest.New(1, parsed).Fail(contract.MethodTotalSupply, boom)
	caller := contract.NewCaller(c, collectionAddr, parsed)
	ctx := context.Background()

	_, err := caller.Uint(ctx, "doesNotExist")
	assert.ErrorIs(t, err, contract.ErrFunctionNotFound)

	_, err = caller.Call(ctx, contract.MethodPurchase, big.NewInt(1))
	assert.ErrorContains(t, err, "not a read function")

	_, err = caller.Uint(ctx, contract.MethodTotalSupply)
	assert.ErrorIs(t, err, boom)

	_, err = caller.Bool(ctx, contract.MethodPrice)
	assert.ErrorIs(t, err, chaintest.ErrNoResult)

	_, err = caller.Uint(ctx, contract.MethodBalanceOf, "not-an-address")
	assert.ErrorContains(t, err, "encoding call")
}

func TestCallerWrongReturnType(t *testing.T) {
	parsed := collectionABI(t)
	c := chaintest.New(1, parsed).Return(contract.MethodIsPublicSaleActive, true)
	_, err := contract.NewCaller(c, collectionAddr, parsed).Uint(context.Background(), contract.MethodIsPublicSaleActive)
	assert.ErrorContains(t, err, "want an integer")
}

// ---------------------------------------------------------------------------
// sender
// ---------------------------------------------------------------------------

func TestSenderPurchase(t *testing.T) {
	parsed := collectionABI(t)
	c := chaintest.New(1, parsed)
	s := contract.NewSender(c, collectionAddr, parsed)

	value := big.NewInt(2e17)
	hash, err := s.Send(context.Background(), buyer, value, contract.MethodPurchase, big.NewInt(2))
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	sent := c.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, buyer, sent[0].From)
	assert.Equal(t, collectionAddr, sent[0].To)
	assert.Equal(t, value, sent[0].Value)
	assert.Equal(t, parsed.Methods[contract.MethodPurchase].ID, sent[0].Data[:4])
}

func TestSenderRejectsReadAndNonPayable(t *testing.T) {
	parsed := collectionABI(t)
	c := chaintest.New(1, parsed)
	s := contract.NewSender(c, collectionAddr, parsed)
	ctx := context.Background()

	_, err := s.Send(ctx, buyer, nil, contract.MethodPrice)
	assert.ErrorContains(t, err, "not a write function")

	_, err = s.Send(ctx, buyer, big.NewInt(1), "pause")
	assert.ErrorIs(t, err, contract.ErrNotPayable)

	_, err = s.Send(ctx, buyer, nil, "pause")
	assert.NoError(t, err, "zero value is fine for nonpayable")

	assert.Len(t, c.Sent(), 1)
}

func TestSenderPropagatesWalletError(t *testing.T) {
	parsed := collectionABI(t)
	c := chaintest.New(1, parsed)
	rejected := errors.New("User denied transaction signature")
	c.FailSend(rejected)

	_, err := contract.NewSender(c, collectionAddr, parsed).Send(context.Background(), buyer, big.NewInt(1), contract.MethodPurchase, big.NewInt(1))
	assert.ErrorIs(t, err, rejected)
}
