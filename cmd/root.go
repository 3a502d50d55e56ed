package cmd

import (
	"fmt"
	"os"

	"knowhow-editor/pkg/config"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
	FlagPort     = "port"
	FlagFlat     = "flat"
)

func RootCmd() *cobra.Command {
	r := &cobra.Command{
		Use:   "knowhow-editor",
		Short: "Markdown editor server that commits and pushes every save.",
	}

	r.PersistentFlags().String(FlagConfig, "", "config file (yaml, toml or json)")
	r.PersistentFlags().String(FlagLogLevel, "", "log level: debug, info, warn, error")

	r.AddCommand(ServeCmd(), TreeCmd())

	return r
}

func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	logLevel, err := cmd.Flags().GetString(FlagLogLevel)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	setupLogger(cfg.LogLevel)
	return cfg, nil
}

func setupLogger(level string) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	switch level {
	case "debug":
		log.Logger = log.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Level(zerolog.WarnLevel)
	case "error":
		log.Logger = log.Level(zerolog.ErrorLevel)
	default:
		log.Logger = log.Level(zerolog.InfoLevel)
	}
}
