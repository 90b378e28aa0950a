package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/events"
	"github.com/Mohsinsiddi/w3mint/internal/mint"
	"github.com/Mohsinsiddi/w3mint/internal/session"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/Mohsinsiddi/w3mint/internal/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mintQuantity int64
	mintWallet   string
	mintYes      bool
)

var mintCmd = &cobra.Command{
	Use:   "mint <slug>",
	Short: "Mint tokens from a project",
	Long: `Connect a wallet, check eligibility and submit the mint transaction,
then wait for it to be mined.

Without --wallet the last connected wallet is reused; otherwise a picker
lists the configured wallets (--yes picks the default one).

Examples:
  w3mint mint genesis-drop
  w3mint mint genesis-drop -n 3 --wallet alice
  w3mint mint genesis-drop -n 2 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mintQuantity < 1 {
			return mint.ErrInvalidQuantity
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var selector wallet.Selector
		switch {
		case mintWallet != "":
			selector = namedSelector(mintWallet)
		case mintYes:
			selector = wallet.DefaultSelector
		}

		core, err := loadProject(ctx, args[0], selector)
		if err != nil {
			return err
		}
		defer core.Close()

		ch, err := core.Chain()
		if err != nil {
			return err
		}
		rep := newMintReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), ch)
		defer rep.spin.Stop()
		rep.attach(core.Bus())

		res, err := connectWallet(ctx, core, mintWallet == "")
		if err != nil {
			return err
		}
		if res.Switch == session.SwitchChainUnsupported || res.Switch == session.SwitchFailed {
			fmt.Fprintln(rep.out, ui.Warn(fmt.Sprintf("wallet is not on %s (%s)", ch.DisplayName, res.Switch)))
		}

		el, err := core.CheckEligibility(ctx, res.Address)
		if err != nil {
			return err
		}
		price, err := core.Price(ctx)
		if err != nil {
			return err
		}
		total := new(big.Int).Mul(price, big.NewInt(mintQuantity))

		cost := chain.FormatEther(total) + " " + ch.NativeCurrency.Symbol
		if note := fiatNote(ctx, ch, total); note != "" {
			cost += " (" + note + ")"
		}
		prompt := fmt.Sprintf("Mint %d (%s) for %s from %s?",
			mintQuantity, el.Mode, cost, ui.TruncateAddr(res.Address.Hex()))
		if !mintYes && !ui.Confirm(cmd.InOrStdin(), rep.out, prompt) {
			fmt.Fprintln(rep.out, ui.Meta("Cancelled."))
			return nil
		}

		result, err := core.MintTo(ctx, mintQuantity, res.Address)
		if err != nil {
			return err
		}
		if result.Receipt.Reverted() {
			return fmt.Errorf("mint transaction %s reverted", result.Hash.Hex())
		}
		fmt.Fprintln(rep.out, ui.Success(fmt.Sprintf("Minted %d for %s %s", result.Quantity,
			chain.FormatEther(result.Value), ch.NativeCurrency.Symbol)))
		return nil
	},
}

// connectWallet reuses the cached wallet when allowed, else asks the bridge.
func connectWallet(ctx context.Context, core *mint.Core, reuse bool) (session.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	if reuse {
		res, err := core.Autoconnect(ctx)
		if err == nil && res.Status == session.StatusConnected {
			return res, nil
		}
		if err != nil {
			logger.Debug("autoconnect failed, asking for a wallet", zap.Error(err))
		}
	}
	res, err := core.Connect(ctx)
	if err != nil {
		return res, err
	}
	switch res.Status {
	case session.StatusConnected:
		return res, nil
	case session.StatusNoInterface:
		return res, errors.New("no wallets configured; add one with: w3mint wallet add <name> --key")
	}
	return res, fmt.Errorf("%w: %s", mint.ErrNotConnected, res.Status)
}

// mintReporter prints lifecycle events and spins while the mint is pending.
// Error events are left to the returned error.
type mintReporter struct {
	out   io.Writer
	chain *chain.Chain
	spin  *ui.Spinner
}

func newMintReporter(out, status io.Writer, ch *chain.Chain) *mintReporter {
	return &mintReporter{out: out, chain: ch, spin: ui.NewSpinner(status, "waiting for the transaction to be mined")}
}

func (r *mintReporter) attach(bus *events.Bus) {
	bus.OnWalletConnected(func(e events.WalletConnected) { r.print(e) })
	bus.OnWalletChanged(func(e events.WalletChanged) { r.print(e) })
	bus.OnTransactionSubmitted(func(e events.TransactionSubmitted) {
		r.print(e)
		r.spin.Start()
	})
	bus.OnTransactionCompleted(func(e events.TransactionCompleted) {
		r.spin.Stop()
		r.print(e)
	})
	bus.OnError(func(events.Error) { r.spin.Stop() })
}

func (r *mintReporter) print(ev events.Event) {
	fmt.Fprintln(r.out, ui.EventLine(ev, r.chain))
}

func init() {
	mintCmd.Flags().Int64VarP(&mintQuantity, "quantity", "n", 1, "number of tokens to mint")
	mintCmd.Flags().StringVar(&mintWallet, "wallet", "", "wallet to mint from")
	mintCmd.Flags().BoolVarP(&mintYes, "yes", "y", false, "skip the confirmation prompt")
}
