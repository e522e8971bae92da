package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "tokenscan"
	version = "v1.0.0"
)

var cfgFile string

func main() {
	setupLogging()

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Solana token risk scanner",
		Version: version,
		Long: `tokenscan assigns a risk score to a token by querying several independent
data providers (on-chain metadata, market aggregators, pair listings, pool
registries, swap quotes) and combining their signals into one deterministic
score, badge and confidence value with human-readable reasons.`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging picks human-readable console output on a TTY and JSON
// otherwise, so piped output stays machine-parseable.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
