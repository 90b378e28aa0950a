// Package project loads the metadata of a mintable NFT project.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidMetadata is returned when a project payload cannot drive a mint.
var ErrInvalidMetadata = errors.New("invalid project metadata")

// Metadata is the nft_project payload served by the project API.
type Metadata struct {
	Contract                Contract `json:"contract"`
	PadNoMinted             int64    `json:"pad_no_minted"`
	EnableCrossmintCheckout bool     `json:"enable_crossmint_checkout"`
	CollectionLabel         string   `json:"collection_label"`
	Info                    Info     `json:"info"`
	PresalePrice            string   `json:"presale_price"`
	Price                   string   `json:"price"`
}

// Contract identifies the collection contract and its presale allowlist.
type Contract struct {
	// ABI is either a JSON array or a string holding one; empty means the
	// built-in collection ABI.
	ABI       json.RawMessage `json:"abi"`
	Address   string          `json:"address"`
	Chain     string          `json:"chain"`
	ChainID   int64           `json:"chain_id"`
	ID        int64           `json:"id"`
	Platform  string          `json:"platform"`
	Whitelist []string        `json:"whitelist"`
	Crossmint *Crossmint      `json:"crossmint,omitempty"`
}

// Crossmint holds the card-checkout collection ids.
type Crossmint struct {
	Presale string `json:"presale"`
	Onsale  string `json:"onsale"`
}

// Info is display information.
type Info struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

// Validate checks the fields the mint flow depends on.
func (m *Metadata) Validate() error {
	if !common.IsHexAddress(m.Contract.Address) {
		return fmt.Errorf("%w: contract address %q", ErrInvalidMetadata, m.Contract.Address)
	}
	if m.Contract.ChainID <= 0 {
		return fmt.Errorf("%w: chain_id %d", ErrInvalidMetadata, m.Contract.ChainID)
	}
	return nil
}

// ContractAddress returns the parsed collection address.
func (m *Metadata) ContractAddress() common.Address {
	return common.HexToAddress(m.Contract.Address)
}

// Title returns the display title, falling back to the collection label.
func (m *Metadata) Title() string {
	if t := strings.TrimSpace(m.Info.Title); t != "" {
		return t
	}
	return m.CollectionLabel
}

// CrossmintEnabled reports whether card checkout is switched on and
// configured for at least one sale phase.
func (m *Metadata) CrossmintEnabled() bool {
	c := m.Contract.Crossmint
	return m.EnableCrossmintCheckout && c != nil && (c.Presale != "" || c.Onsale != "")
}
