// Package cli implements the faultline command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zoobzio/faultline/internal/config"
	"github.com/zoobzio/faultline/internal/logger"
)

// GlobalFlags are accepted by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

type contextKey struct{}

// NewRootCmd builds the faultline command tree.
func NewRootCmd() *cobra.Command {
	var flags GlobalFlags

	rootCmd := &cobra.Command{
		Use:   "faultline",
		Short: "Inspect, convert and journal serialized errors",
		Long: `faultline reads serialized errors in JSON, YAML, MessagePack or BSON,
rebuilds them as live errors, re-encodes them between formats, captures
exceptions thrown by JavaScript and keeps a SQLite journal of recorded
errors grouped by fingerprint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			configPath := flags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			level := cfg.Log.Level
			if flags.Verbose {
				level = "debug"
			}
			if flags.Quiet {
				level = "error"
			}
			if err := logger.InitTo(cmd.ErrOrStderr(), logger.LogConfig{
				Level:  level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			journalPath, err := cfg.JournalPath()
			if err != nil {
				return err
			}

			cliCtx := NewCLIContext(cfg, configPath, logger.Get(), journalPath)
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx := GetCLIContext(cmd); cliCtx != nil {
				return cliCtx.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "quiet mode")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewDecodeCmd())
	rootCmd.AddCommand(NewTranscodeCmd())
	rootCmd.AddCommand(NewJSCmd())
	rootCmd.AddCommand(NewJournalCmd())

	return rootCmd
}

// GetCLIContext returns the context PersistentPreRunE attached to cmd.
func GetCLIContext(cmd *cobra.Command) *CLIContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cliCtx, _ := ctx.Value(contextKey{}).(*CLIContext)
	return cliCtx
}
