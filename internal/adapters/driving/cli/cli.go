// Package cli provides the docdex command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/config"
	"github.com/docdex-io/docdex/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool

	// cfg is loaded once in the root command's PersistentPreRunE and
	// read by every subcommand.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "docdex",
	Short: "Documentation retrieval server for LLM clients",
	Long: `docdex indexes curated documentation into a vector index and serves
it to LLM clients over the Model Context Protocol.

Ingestion runs offline: load the corpus, chunk it into passages, embed
them and write the vectors. Serving is read-only: queries are embedded
with the same model and answered from the index with source attribution.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose || cfg.Verbose {
			logger.SetVerbose(true)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docdex/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
