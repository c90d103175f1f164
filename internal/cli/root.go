// Package cli is the streamsend command tree: a cobra.Command root plus
// one file per subcommand, global flags bound in init().
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/ilpstreamd/internal/config"
)

var (
	// Global flags.
	configFile string
	quiet      bool

	// loadedConfig is populated by initConfig and read by subcommands.
	loadedConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "streamsend",
	Short: "streamsend - Interledger STREAM sender core",
	Long: `streamsend drives an Interledger STREAM sender core: given a
shared secret and a destination, it packetizes a payment into a
sequence of ILP Prepare packets, adapts to the receiver's and
network's feedback via an AIMD congestion controller, and reports a
delivery receipt.

This is the sender half of STREAM only. It does not implement a
connector, receiver-side fulfillment, quoting, or a production
transport.`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(); it only needs to happen
// once to rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
}

// initConfig loads the TOML config from --conf, or from streamsend.toml in
// the working directory when --conf is not given, with viper defaults
// filling in everything else via internal/config.LoadConfig.
func initConfig() {
	paths := config.DefaultConfigPaths()
	if configFile != "" {
		paths.Main = configFile
	}

	cfg, err := config.LoadConfig(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	loadedConfig = cfg
}