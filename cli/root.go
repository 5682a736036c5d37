// Package cli wires the claimguard commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"claimguard/config"
	"claimguard/logger"
)

// Version is overridden at build time with -ldflags "-X claimguard/cli.Version=...".
var Version = "dev"

var (
	cfgFile   string
	modelPath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "claimguard",
	Short: "Insurance claim fraud scoring",
	Long: `claimguard serves a claim entry form and a JSON API that score insurance
claims with a pre-trained fraud classifier.

The classifier is loaded once from a model artifact. When it cannot be
loaded the form is replaced by a warning and scoring requests are refused.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "claimguard %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "model artifact path (overrides model.path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies the global flags on top of the loaded configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if modelPath != "" {
		cfg.Model.Path = modelPath
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}
