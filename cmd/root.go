package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3mint/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3mint/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir  string
	cfg     *config.Config
	logger  = zap.NewNop()
	verbose bool
	testAPI bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3mint",
	Short: "Mint from an NFT collection in the terminal",
	Long: `w3mint loads an NFT project, checks whether your wallet may mint right
now, and submits the mint transaction.

Global flag --test uses the test project API for a single invocation.
Persist the choice with: w3mint config set-mode test`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if testAPI {
			cfg.Mode = config.ModeTest
		}
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errLine(err))
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $W3MINT_CONFIG_DIR or ~/.w3mint)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every step to stderr")
	rootCmd.PersistentFlags().BoolVar(&testAPI, "test", false, "use the test project API")

	rootCmd.AddCommand(
		statusCmd,
		eligibilityCmd,
		proofCmd,
		mintCmd,
		networkCmd,
		walletCmd,
		configCmd,
	)
}
