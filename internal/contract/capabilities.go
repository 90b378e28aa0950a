package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Collection contract methods the mint flow reads or calls.
const (
	MethodIsPublicSaleActive  = "isPublicSaleActive"
	MethodIsPreSaleActive     = "isPreSaleActive"
	MethodOnPreSaleAllowList  = "onPreSaleAllowList"
	MethodOnEarlyPurchaseList = "onEarlyPurchaseList"
	MethodMaxTotalMint        = "MAX_TOTAL_MINT"
	MethodMaxPerAddress       = "MAX_TOTAL_MINT_PER_ADDRESS"
	MethodTotalSupply         = "totalSupply"
	MethodBalanceOf           = "balanceOf"
	MethodPrice               = "PRICE"
	MethodPurchase            = "purchase"
	MethodEarlyPurchase       = "earlyPurchase"
)

// Capabilities records which optional functions a collection contract
// exposes. It is resolved once from the ABI when a project loads; callers
// branch on it instead of probing the contract.
type Capabilities struct {
	HasPublicSaleFlag       bool // isPublicSaleActive()
	HasNativeAllowlistCheck bool // onPreSaleAllowList(address)
	HasProofAllowlistCheck  bool // onEarlyPurchaseList(address,bytes32[])
	HasEarlyPurchase        bool // earlyPurchase(uint256,bytes32[])
	HasPerAddressCap        bool // MAX_TOTAL_MINT_PER_ADDRESS()
}

// ResolveCapabilities inspects parsed for the optional collection functions.
// A function only counts when its argument types match what the mint flow
// passes.
func ResolveCapabilities(parsed abi.ABI) Capabilities {
	return Capabilities{
		HasPublicSaleFlag:       hasMethod(parsed, MethodIsPublicSaleActive),
		HasNativeAllowlistCheck: hasMethod(parsed, MethodOnPreSaleAllowList, "address"),
		HasProofAllowlistCheck:  hasMethod(parsed, MethodOnEarlyPurchaseList, "address", "bytes32[]"),
		HasEarlyPurchase:        hasMethod(parsed, MethodEarlyPurchase, "uint256", "bytes32[]"),
		HasPerAddressCap:        hasMethod(parsed, MethodMaxPerAddress),
	}
}

func hasMethod(parsed abi.ABI, name string, inputs ...string) bool {
	_, ok := findMethod(parsed, name, inputs)
	return ok
}

// findMethod looks up a method by its Solidity name and exact input types.
// Overloads get suffixed keys in abi.ABI.Methods, so the raw name is matched.
func findMethod(parsed abi.ABI, name string, inputs []string) (abi.Method, bool) {
	for _, m := range parsed.Methods {
		if m.RawName != name || len(m.Inputs) != len(inputs) {
			continue
		}
		match := true
		for i, in := range m.Inputs {
			if in.Type.String() != inputs[i] {
				match = false
				break
			}
		}
		if match {
			return m, true
		}
	}
	return abi.Method{}, false
}
