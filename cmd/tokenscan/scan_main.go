package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cryptoguard/tokenscan/internal/config"
	"github.com/cryptoguard/tokenscan/internal/resilience"
	"github.com/cryptoguard/tokenscan/internal/scan"
	"github.com/cryptoguard/tokenscan/internal/telemetry"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <mint>",
		Short: "Scan one token and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	mint := args[0]
	if decoded, err := base58.Decode(mint); err != nil || len(decoded) != 32 {
		return fmt.Errorf("invalid mint address %q: expected a base58-encoded 32-byte public key", mint)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	res := resilience.NewContext(cfg.Resilience, telemetry.New(registry))
	scanner := scan.New(cfg, res)

	result := scanner.Scan(cmd.Context(), mint)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
