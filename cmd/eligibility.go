package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/spf13/cobra"
)

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility <slug> <address|name.eth>",
	Short: "Check whether an address may mint right now",
	Long: `Run the same checks a mint runs before submitting: open sale phase,
presale allowlist, remaining supply and the per-wallet limit.

Exits non-zero with the reason when the address cannot mint.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.StatusTimeout)
		defer cancel()

		addr, err := resolveAddress(ctx, args[1])
		if err != nil {
			return err
		}

		core, err := loadProject(ctx, args[0], nil)
		if err != nil {
			return err
		}
		defer core.Close()

		el, err := core.CheckEligibility(ctx, addr)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s can mint (%s)", accountLabel(ctx, args[1], addr), el.Mode)))
		snap := el.Snapshot
		fmt.Fprintf(out, "  %s %s / %s\n", ui.Meta("Minted:"), snap.TotalMinted, snap.TotalMintable)
		if snap.MaxPerAddress != nil {
			fmt.Fprintf(out, "  %s %s of %s\n", ui.Meta("Owned:"), snap.AddressBalance, snap.MaxPerAddress)
		}
		return nil
	},
}
