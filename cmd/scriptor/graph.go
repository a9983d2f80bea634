package main

import (
	"fmt"

	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <script>",
	Short: "Export the script flow as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		script, err := app.Engine.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(script, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
