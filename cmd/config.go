package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Mohsinsiddi/w3mint/internal/chain"
	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/rpc"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, ui.Meta("Project API: "+cfg.ActiveAPIHost()))
		fmt.Fprintln(out, ui.Meta("Config directory: "+cfg.Dir()))
		return nil
	},
}

var configSetModeCmd = &cobra.Command{
	Use:       "set-mode <prod|test>",
	Short:     "Choose the production or test project API",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.ModeProd, config.ModeTest},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.SetMode(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Mode set to %s (%s)", cfg.Mode, cfg.ActiveAPIHost())))
		return nil
	},
}

var configSetHostTest bool

var configSetHostCmd = &cobra.Command{
	Use:   "set-host <url>",
	Short: "Set the project API host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := parseHost(args[0])
		if err != nil {
			return err
		}
		which := "production"
		if configSetHostTest {
			cfg.TestAPIHost = host
			which = "test"
		} else {
			cfg.APIHost = host
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("%s API host set to %s", which, host)))
		return nil
	},
}

var configAddRPCCmd = &cobra.Command{
	Use:   "add-rpc <chain> <url>",
	Short: "Add a custom RPC for a chain, used before the built-in one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, rpcURL := args[0], args[1]
		if _, err := chain.NewRegistry().GetByName(chainName); err != nil {
			return fmt.Errorf("unknown chain %q; run `w3mint network list` to see all chains", chainName)
		}
		if _, err := parseHost(rpcURL); err != nil {
			return err
		}
		if err := cfg.AddRPC(chainName, rpcURL); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s added for %s", rpcURL, ui.ChainName(chainName))))
		return nil
	},
}

var configRemoveRPCCmd = &cobra.Command{
	Use:   "remove-rpc <chain> <url>",
	Short: "Remove a custom RPC",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("RPC %s removed for %s", args[1], args[0])))
		return nil
	},
}

var configSetAlgorithmCmd = &cobra.Command{
	Use:       "set-rpc-algorithm <failover|fastest|round-robin>",
	Short:     "Choose how a read RPC is picked among a chain's endpoints",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(rpc.AlgorithmFailover), string(rpc.AlgorithmFastest), string(rpc.AlgorithmRoundRobin)},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.SetRPCAlgorithm(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("RPC algorithm set to "+cfg.RPCAlgorithm))
		return nil
	},
}

var configSetCurrencyCmd = &cobra.Command{
	Use:   "set-currency <code|none>",
	Short: "Set the fiat currency for price estimates (none disables them)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := strings.ToLower(args[0])
		if cur == "none" {
			cur = ""
		}
		cfg.Currency = cur
		if err := cfg.Save(); err != nil {
			return err
		}
		if cur == "" {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Price estimates disabled"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Price estimates in "+strings.ToUpper(cur)))
		return nil
	},
}

// parseHost accepts absolute http(s) URLs only.
func parseHost(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: want http(s)://host", raw)
	}
	return raw, nil
}

func init() {
	configSetHostCmd.Flags().BoolVar(&configSetHostTest, "test", false, "set the test API host")
	configCmd.AddCommand(configShowCmd, configSetModeCmd, configSetHostCmd, configAddRPCCmd, configRemoveRPCCmd, configSetAlgorithmCmd, configSetCurrencyCmd)
}
