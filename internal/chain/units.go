package chain

import (
	"math/big"
	"strings"
)

// EtherDecimals is the number of decimals of every native currency in the registry.
const EtherDecimals = 18

// FormatEther renders a wei amount in whole native units, e.g. 5e16 → "0.05"
// and 1e18 → "1.0". It is exact; no floating point is involved.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}

// FormatUnits renders raw with the given number of decimals, trimming
// trailing zeros but keeping at least one fractional digit.
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		raw = new(big.Int)
	}
	if decimals <= 0 {
		return raw.String()
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)

	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, div, new(big.Int))

	fs := frac.String()
	fs = strings.Repeat("0", decimals-len(fs)) + fs
	fs = strings.TrimRight(fs, "0")
	if fs == "" {
		fs = "0"
	}

	out := whole.String() + "." + fs
	if neg {
		out = "-" + out
	}
	return out
}
