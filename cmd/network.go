package cmd

import (
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the networks projects can live on",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		custom := cfg.RPCsByChainID(reg)
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 14},
			{Title: "Display", Width: 26},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 8},
			{Title: "Testnet", Width: 7},
			{Title: "RPC", Width: 40},
		})

		for _, c := range reg.All() {
			testnet := ""
			if c.Testnet {
				testnet = "✓"
			}
			rpc := ""
			if urls := custom[c.ChainID]; len(urls) > 0 {
				rpc = urls[0] + " (custom)"
			} else if len(c.RPCURLs) > 0 {
				rpc = c.RPCURLs[0]
			}
			t.AddRow(ui.Row{
				c.Name,
				c.DisplayName,
				strconv.FormatInt(c.ChainID, 10),
				c.NativeCurrency.Symbol,
				testnet,
				rpc,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks", len(reg.All()))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd)
}
