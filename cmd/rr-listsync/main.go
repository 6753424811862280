package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/config"
)

const (
	version = "0.1.0-dev"
	appName = "rr-listsync"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

// cli carries state shared by all subcommands once the root has loaded config.
type cli struct {
	configFile string
	cfg        *config.AppConfig
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Apply block and allow requests to the response-policy lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(c.configFile)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
				return fmt.Errorf("logging configuration error: %w", err)
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "YAML config file (overrides "+config.ConfigFileEnv+")")

	root.AddCommand(
		c.runCmd(),
		c.pruneCmd(),
		c.checkCmd(),
		c.historyCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}
}
