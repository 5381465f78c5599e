package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mselser95/arb-scanner/internal/venue"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/spf13/cobra"
)

const probeTimeout = 10 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check connectivity to every configured venue",
	Long: `Dials every enabled venue's catalog endpoint once and reports
reachability, without starting the scan loop or dashboard. Exits 2 if
every venue is unreachable.`,
	RunE: runProbe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
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

	adapters, err := buildVenueRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("build venue registry: %w", err)
	}
	if len(adapters) == 0 {
		return fmt.Errorf("no venue is enabled in %s", configPath)
	}

	venues := make([]types.Venue, 0, len(adapters))
	for v := range adapters {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	reachable := 0
	for _, v := range venues {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		_, err := adapters[v].ListMarkets(ctx, "active")
		cancel()
		if err != nil {
			fmt.Printf("%-8s UNREACHABLE: %v\n", v, err)
			continue
		}
		fmt.Printf("%-8s OK\n", v)
		reachable++
	}

	if reachable == 0 {
		os.Exit(2)
	}
	return nil
}
