package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [script...]",
	Short: "Check scripts for consistency",
	Long:  `Checks entry points, targets, commands and checker inputs of the named scripts, or of every script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		names := args
		if len(names) == 0 {
			if names, err = app.Engine.List(cmd.Context()); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		var failed []error
		for _, name := range names {
			script, err := app.Engine.Load(cmd.Context(), name)
			if err == nil {
				err = app.Engine.Validate(script)
			}
			if err != nil {
				fmt.Fprintf(out, "✗ %s\n  %v\n", name, err)
				failed = append(failed, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s\n", name)
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d scripts are invalid: %w", len(failed), len(names), errors.Join(failed...))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
