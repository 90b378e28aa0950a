package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ErrFunctionNotFound is returned when a method is not in the contract ABI.
var ErrFunctionNotFound = errors.New("function not found in ABI")

// BuiltinKind describes a contract type whose ABI is embedded in the binary.
// New built-ins register themselves via init() in their own <name>_abi.go.
type BuiltinKind struct {
	ID          string // machine key, e.g. "collection"
	Name        string // human label
	Description string
	ABI         string // JSON ABI
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the global registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuiltinABI parses the ABI of a registered built-in.
func BuiltinABI(id string) (abi.ABI, error) {
	b, ok := builtinRegistry[id]
	if !ok {
		return abi.ABI{}, fmt.Errorf("unknown builtin %q", id)
	}
	return abi.JSON(strings.NewReader(b.ABI))
}

// ParseABI parses a contract ABI as served by the project API. The value may
// be a JSON array or a JSON string holding the array. An empty value falls
// back to the built-in collection ABI.
func ParseABI(raw json.RawMessage) (abi.ABI, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return BuiltinABI(CollectionBuiltin)
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return abi.ABI{}, fmt.Errorf("decoding ABI string: %w", err)
		}
		if strings.TrimSpace(inner) == "" {
			return BuiltinABI(CollectionBuiltin)
		}
		raw = json.RawMessage(inner)
	}
	parsed, err := abi.JSON(bytes.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parsing ABI: %w", err)
	}
	return parsed, nil
}

func isRead(m abi.Method) bool {
	return m.StateMutability == "view" || m.StateMutability == "pure" || m.Constant
}

func isWrite(m abi.Method) bool {
	return !isRead(m)
}
