package cmd

import (
	"fmt"

	"github.com/mselser95/arb-scanner/internal/app"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scanner daemon",
	Long: `Starts the arbitrage scanner daemon, which will:
1. Poll every enabled venue's market catalog on a fixed interval
2. Match equivalent markets across venues
3. Evaluate every matched pair for a net arbitrage edge
4. Serve a live dashboard and notify configured sinks of new opportunities

The daemon never places or cancels orders.`,
	RunE: runDaemon,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger, &app.Options{})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	if err := application.Run(); err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
