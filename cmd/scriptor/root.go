package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scriptor/internal/cli"
	"github.com/aretw0/scriptor/internal/config"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "scriptor",
	Short:         "Scriptor runs automation scripts against stored profiles",
	Long:          `Scriptor executes scripts of commands with checker-based routing, procedures and a finally path, against persistent profiles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the scriptor configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every lifecycle event to stderr")
}

// openApp builds the app from the persistent flags.
func openApp(cmd *cobra.Command, hooks ...domain.LifecycleHooks) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Open(cli.Options{ConfigPath: path, Debug: debug, Hooks: hooks})
}
