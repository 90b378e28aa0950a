package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <slug>",
	Short: "Show the sale state of a project",
	Long: `Load a project from the project API and read its sale state from the
collection contract: which phase is open, how many tokens are minted, the
price and the per-wallet limit.

Examples:
  w3mint status genesis-drop
  w3mint status genesis-drop --test`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.StatusTimeout)
		defer cancel()

		slug := args[0]
		core, err := loadProject(ctx, slug, nil)
		if err != nil {
			return err
		}
		defer core.Close()

		meta, err := core.Metadata()
		if err != nil {
			return err
		}
		ch, err := core.Chain()
		if err != nil {
			return err
		}
		st, err := core.Status(ctx)
		if err != nil {
			return err
		}
		minted, err := core.TotalMintedPadded(ctx)
		if err != nil {
			return err
		}

		title := meta.Title()
		if title == "" {
			title = slug
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.StatusBlock(title, ch, st, minted))
		if note := fiatNote(ctx, ch, st.Price); note != "" {
			fmt.Fprintf(out, "  %s %s\n", ui.Meta("Price estimate:"), note)
		}
		fmt.Fprintf(out, "  %s %s\n", ui.Meta("Contract:"), ui.Addr(meta.ContractAddress().Hex()))
		if u := ch.AddressURL(meta.ContractAddress().Hex()); u != "" {
			fmt.Fprintf(out, "  %s\n", ui.Meta(u))
		}
		if n := len(meta.Contract.Whitelist); n > 0 {
			fmt.Fprintf(out, "  %s %d addresses\n", ui.Meta("Allowlist:"), n)
		}
		if on, _ := core.CrossMintEnabled(); on {
			fmt.Fprintf(out, "  %s enabled\n", ui.Meta("Card checkout:"))
		}
		return nil
	},
}
