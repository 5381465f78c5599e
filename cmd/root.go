package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arb-scanner",
	Short: "Cross-venue prediction market arbitrage scanner",
	Long: `arb-scanner polls multiple prediction-market venues, matches
equivalent markets across them, and surfaces price combinations where a
YES share on one venue plus a NO share on another sum to less than 1.0
net of fees. It never places or cancels orders; it only detects and
reports.`,
}

//nolint:gochecknoglobals // shared by every subcommand that loads configuration
var configPath string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the scanner's YAML configuration file")
}
