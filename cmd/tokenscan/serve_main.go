package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cryptoguard/tokenscan/internal/config"
	httpserver "github.com/cryptoguard/tokenscan/internal/interfaces/http"
	"github.com/cryptoguard/tokenscan/internal/resilience"
	"github.com/cryptoguard/tokenscan/internal/scan"
	"github.com/cryptoguard/tokenscan/internal/telemetry"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan API over HTTP",
		Long:  "Start the HTTP interface exposing /v1/scan/{mint}, /health and /metrics.",
		RunE:  runServe,
	}
	bindServeFlags(cmd.Flags())
	return cmd
}

func bindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	addr := cfg.Server.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	registry := prometheus.NewRegistry()
	res := resilience.NewContext(cfg.Resilience, telemetry.New(registry))
	scanner := scan.New(cfg, res)

	server := httpserver.NewServer(scanner, res, registry)
	return server.ListenAndServe(addr)
}
