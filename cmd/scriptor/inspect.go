package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scriptor/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <script>",
	Short: "Describe a script as tables of actions",
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
		out, err := tui.Render(os.Stdout, tui.Describe(script))
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
