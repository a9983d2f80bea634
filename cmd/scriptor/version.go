package main

import (
	"fmt"

	"github.com/aretw0/scriptor"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scriptor",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptor version %s\n", scriptor.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
