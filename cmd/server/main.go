// Command server runs the codelens Connect RPC and JSON server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tenntenn/codelens/backend/analysis"
	"github.com/tenntenn/codelens/backend/api"
	"github.com/tenntenn/codelens/backend/config"
	"github.com/tenntenn/codelens/backend/logging"
)

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("CODELENS_CONFIG"), "path to an .hcl or .yaml config file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New("codelens-server", cfg.LogLevel, os.Stderr)

	a := analysis.New(
		analysis.WithLogger(logger.Named("analysis")),
		analysis.WithGoVersion(cfg.Analysis.GoVersion),
		analysis.WithDisabled(cfg.Analysis.DisabledDetectors...),
	)
	handler := api.NewHTTPHandler(api.NewAnalyzerServiceHandler(a, cfg.Analysis.MaxSourceBytes), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return api.Serve(ctx, cfg.Server.Addr, handler, logger)
}
