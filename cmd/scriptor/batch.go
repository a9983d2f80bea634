package main

import (
	"fmt"

	"github.com/aretw0/scriptor/internal/cli"
	"github.com/aretw0/scriptor/pkg/runner"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run scripts against many profiles concurrently",
	Long: `Runs every selected script, in order, against every selected profile.
Profiles run concurrently up to the configured concurrency. Scripts and
profiles default to the configuration, then to everything available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scripts, _ := cmd.Flags().GetStringSlice("script")
		profiles, _ := cmd.Flags().GetStringSlice("profile")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := runner.SignalContext(cmd.Context())
		defer stop()

		sum, err := app.Batch(ctx, cli.BatchOptions{Scripts: scripts, Profiles: profiles, Concurrency: concurrency}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d runs failed", sum.Failed, sum.Total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringSliceP("script", "s", nil, "Scripts to run (repeatable)")
	batchCmd.Flags().StringSliceP("profile", "p", nil, "Profiles to run against (repeatable)")
	batchCmd.Flags().IntP("concurrency", "c", 0, "Profiles run at once (default from config)")
}
