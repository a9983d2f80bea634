package main

import (
	"github.com/aretw0/scriptor/internal/cli"
	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a script once",
	Long: `Runs a script against a stored profile (--profile) or a throwaway one.
The profile is saved back after the run, even when it fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, _ := cmd.Flags().GetString("profile")
		vars, _ := cmd.Flags().GetString("vars")
		showGraph, _ := cmd.Flags().GetBool("graph")
		watchMode, _ := cmd.Flags().GetBool("watch")

		var hooks []domain.LifecycleHooks
		opts := cli.RunOptions{Script: args[0], ProfileID: profileID, Variables: vars}
		if showGraph {
			opts.Trace = &graph.Trace{}
			hooks = append(hooks, opts.Trace.Hooks())
		}

		app, err := openApp(cmd, hooks...)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := runner.SignalContext(cmd.Context())
		defer stop()

		if watchMode {
			return app.Watch(ctx, opts, cmd.OutOrStdout())
		}
		_, err = app.Run(ctx, opts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("profile", "p", "", "Stored profile to run against")
	runCmd.Flags().String("vars", "", "Initial run variables as a JSON object")
	runCmd.Flags().Bool("graph", false, "Print a Mermaid flowchart of the visited actions")
	runCmd.Flags().BoolP("watch", "w", false, "Re-run on every change to the scripts (loam loader)")
}
