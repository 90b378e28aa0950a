package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/w3mint/internal/allowlist"
	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/Mohsinsiddi/w3mint/internal/ui"
	"github.com/spf13/cobra"
)

var proofJSON bool

type proofOutput struct {
	Address string   `json:"address"`
	Listed  bool     `json:"listed"`
	Leaf    string   `json:"leaf"`
	Root    string   `json:"root,omitempty"`
	Proof   []string `json:"proof"`
}

var proofCmd = &cobra.Command{
	Use:   "proof <slug> <address|name.eth>",
	Short: "Print the presale allowlist proof of an address",
	Long: `Build the project's allowlist Merkle tree and print the leaf, root and
proof path of an address, as passed to earlyPurchase.

Examples:
  w3mint proof genesis-drop 0xf39F...2266
  w3mint proof genesis-drop 0xf39F...2266 --json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), config.ProjectFetchTimeout)
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

		proof, err := core.ProofFor(addr)
		if err != nil {
			return err
		}
		root, hasRoot, err := core.AllowlistRoot()
		if err != nil {
			return err
		}

		res := proofOutput{
			Address: addr.Hex(),
			Listed:  hasRoot && allowlist.VerifyProof(root, proof),
			Leaf:    proof.Leaf.Hex(),
			Proof:   proof.HexPath(),
		}
		if hasRoot {
			res.Root = root.Hex()
		}

		out := cmd.OutOrStdout()
		if proofJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if res.Listed {
			fmt.Fprintln(out, ui.Success(ui.Addr(res.Address)+" is on the allowlist"))
		} else {
			fmt.Fprintln(out, ui.Warn(ui.Addr(res.Address)+" is not on the allowlist"))
		}
		pairs := [][2]string{{"Leaf", res.Leaf}, {"Root", res.Root}}
		for i, p := range res.Proof {
			pairs = append(pairs, [2]string{fmt.Sprintf("Proof[%d]", i), p})
		}
		fmt.Fprintln(out, ui.KeyValueBlock("Allowlist proof", pairs))
		return nil
	},
}

func init() {
	proofCmd.Flags().BoolVar(&proofJSON, "json", false, "print JSON")
}
