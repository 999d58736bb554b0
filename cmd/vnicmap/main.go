package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"go-vnicmap/internal/app"
	"go-vnicmap/internal/config"
	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/report"
)

func main() {
	config.LoadEnvFiles()

	var profile, source, format string
	var strict bool
	flag.StringVar(&profile, "profile", "", "server profile name (overrides SERVER_PROFILE)")
	flag.StringVar(&source, "source", "", "ESXi inventory source: vsphere|ssh (overrides ESXI_SOURCE)")
	flag.StringVar(&format, "format", report.FormatTable, "output format: table|json|yaml")
	flag.BoolVar(&strict, "strict", false, "exit non-zero when records were excluded from the mapping")
	flag.Parse()

	os.Exit(run(profile, source, format, strict))
}

func run(profile, source, format string, strict bool) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if profile != "" {
		cfg.ServerProfile = profile
	}
	if source != "" {
		cfg.ESXi.Source = source
	}
	if cfg.ESXi.Source != config.SourceVSphere && cfg.ESXi.Source != config.SourceSSH {
		fmt.Fprintf(os.Stderr, "unknown source %q\n", cfg.ESXi.Source)
		return 2
	}
	if err := logging.Init(logging.Config{Level: cfg.Log.Level, Output: cfg.Log.Output}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := cfg.ValidateCLI(); err != nil {
		log.Error().Err(err).Msg("configuration incomplete")
		return 2
	}

	mapper, err := app.NewMapper(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to build intersight client")
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	snap, result, err := mapper.Map(ctx, cfg.ESXi.Host, cfg.ServerProfile)
	if err != nil {
		log.Error().Err(err).Str("host", cfg.ESXi.Host).Str("profile", cfg.ServerProfile).Msg("mapping failed")
		return 1
	}

	for _, recErr := range result.Errors {
		log.Warn().Str("source", recErr.Source).Str("switch", recErr.Switch).Str("name", recErr.Name).
			Str("mac", recErr.MAC).Msg(recErr.Reason)
	}

	if err := report.Write(os.Stdout, format, snap, result); err != nil {
		log.Error().Err(err).Msg("failed to write report")
		return 1
	}

	if strict && len(result.Errors) > 0 {
		return 3
	}
	return 0
}
