// Package main is the pointsmaxxer entry point: the Telegram daemon plus
// one-shot commands for scans, searches and portfolio queries.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pointsmaxxer/pointsmaxxer/internal/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "pointsmaxxer"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Find outsized award redemptions for your points",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(flags.logLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to the YAML config (default: search paths)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides APP_LOG_LEVEL)")

	cmd.AddCommand(
		runCmd(flags),
		scanCmd(flags),
		searchCmd(flags),
		compareCmd(flags),
		historyCmd(flags),
		portfolioCmd(flags),
		pathsCmd(flags),
		estimateCmd(flags),
		discoverCmd(flags),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (built %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// setupLogging configures the formatter; the level comes from the flag
// and is otherwise applied after the environment is loaded.
func setupLogging(level string) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	if level != "" {
		if lvl, err := log.ParseLevel(level); err == nil {
			log.SetLevel(lvl)
		}
	}
}

// load reads the environment and the YAML file. The file path comes from
// --config, then POINTSMAXXER_CONFIG, then the search paths.
func (f *globalFlags) load() (*config.Config, *config.File, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel == "" {
		if lvl, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
			log.SetLevel(lvl)
		}
	}

	path := f.configPath
	if path == "" {
		path = cfg.ConfigPath
	}
	file, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, file, nil
}
