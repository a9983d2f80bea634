package main

import (
	"fmt"

	"github.com/aretw0/scriptor"
	"github.com/aretw0/scriptor/internal/config"
	"github.com/aretw0/scriptor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file and its directories",
	Long:  `Writes a default configuration when none exists and creates the storage, scripts and log directories it names.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		cfg, err := config.Bootstrap(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		tui.PrintBanner(out, scriptor.Version)
		fmt.Fprintf(out, "Config:   %s\n", path)
		fmt.Fprintf(out, "Scripts:  %s\n", cfg.ScriptsDir())
		fmt.Fprintf(out, "Profiles: %s\n", cfg.StorageDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
