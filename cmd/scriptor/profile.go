package main

import (
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored profiles",
}

var profileLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.ListProfiles(cmd.Context(), cmd.OutOrStdout())
	},
}

var profileInspectCmd = &cobra.Command{
	Use:   "inspect <profile-id>",
	Short: "Print a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.InspectProfile(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var profileRmCmd = &cobra.Command{
	Use:   "rm <profile-id>...",
	Short: "Remove one or more profiles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.RemoveProfiles(cmd.Context(), args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileLsCmd)
	profileCmd.AddCommand(profileInspectCmd)
	profileCmd.AddCommand(profileRmCmd)
}
