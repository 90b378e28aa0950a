package ui

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/sale"
)

// StatusBlock renders a sale overview. minted is the displayed (padded)
// supply; nil falls back to the raw total.
func StatusBlock(title string, ch *chain.Chain, st *sale.Status, minted *big.Int) string {
	if minted == nil {
		minted = st.TotalMinted
	}
	symbol := ch.NativeCurrency.Symbol
	phase := "closed"
	switch {
	case st.PublicSaleActive:
		phase = "public sale"
	case st.PresaleActive:
		phase = "presale"
	}
	return KeyValueBlock(title, [][2]string{
		{"Network", fmt.Sprintf("%s (%d)", ch.DisplayName, ch.ChainID)},
		{"Phase", phase},
		{"Minted", fmt.Sprintf("%s / %s", num(minted), num(st.TotalMintable))},
		{"Price", chain.FormatEther(st.Price) + " " + symbol},
		{"Per wallet", num(st.MaxPerAddress)},
	})
}

// EventLine renders one lifecycle event for the mint log. ch links
// transaction hashes to the explorer when known.
func EventLine(ev events.Event, ch *chain.Chain) string {
	switch e := ev.(type) {
	case events.StateChange:
		if e.IsReady {
			return Info("project loaded")
		}
		return Warn("project not ready")
	case events.WalletConnected:
		return Success("wallet connected " + Addr(e.Address))
	case events.WalletChanged:
		return Info("wallet accounts changed")
	case events.TransactionSubmitted:
		return Info("submitted " + Addr(e.TransactionHash) + explorer(ch, e.TransactionHash))
	case events.TransactionCompleted:
		r := e.Receipt
		if r == nil {
			return Success("mined")
		}
		if r.Reverted() {
			return Err(fmt.Sprintf("reverted in block %d", r.BlockNumber))
		}
		return Success(fmt.Sprintf("mined in block %d (gas %d)", r.BlockNumber, r.GasUsed))
	case events.Error:
		return Err(ErrorText(e))
	}
	return Meta(string(ev.Kind()))
}

// ErrorText is the message shown for an Error event.
func ErrorText(e events.Error) string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Type)
}

func explorer(ch *chain.Chain, hash string) string {
	if ch == nil {
		return ""
	}
	if u := ch.TxURL(hash); u != "" {
		return "\n  " + Meta(u)
	}
	return ""
}

func num(n *big.Int) string {
	if n == nil {
		return "-"
	}
	return n.String()
}
