package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/huepreset/internal/app"
	"github.com/dokzlo13/huepreset/internal/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file (default config.yaml, then HUE_BRIDGE/HUE_TOKEN)")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (shorthand)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg.Log.Level, cfg.Log.UseJSON, cfg.Log.Colors)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	err = runCommand(ctx, application, os.Stdout, flag.Arg(0), flag.Args()[1:])
	application.Close()

	if errors.Is(err, errUsage) {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", flag.Arg(0)).Msg("Command failed")
	}
}

// loadConfig reads path, or config.yaml when present, or falls back to the
// HUE_BRIDGE and HUE_TOKEN environment variables.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return config.Load(defaultConfigPath)
	}
	return config.FromEnv()
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: huepreset [-c config.yaml] <command> [args]

Commands:
  ping                       show bridge name and API version
  lights [id]                print the bridge lights as JSON
  color <expr> <id>...       set the given lights to a CSS color
  set <id> [on|off] [bri=0.5] [hue=200] [sat=1] [transition=400ms] [blink=once] [colorloop]
  run [script]               run a Lua preset script
  history [-n 20]            show recent applies
  url [segments...]          print a bridge API URL

Flags:
`)
	flag.PrintDefaults()
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
