package main

import (
	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Manage saved sweep progress",
	Long:  `List, inspect, and reset the progress saved by interrupted or finished sweeps.`,
}

var progressLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sweeps with saved progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListProgress(cmd.Context(), cmd.OutOrStdout(), progressOptions(cmd))
	},
}

var progressShowCmd = &cobra.Command{
	Use:   "show <sweep>",
	Short: "Print the saved progress of a sweep",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ShowProgress(cmd.Context(), cmd.OutOrStdout(), progressOptions(cmd), args[0])
	},
}

var progressResetCmd = &cobra.Command{
	Use:   "reset <sweep>...",
	Short: "Forget the saved progress of one or more sweeps",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ResetProgress(cmd.Context(), cmd.OutOrStdout(), progressOptions(cmd), args...)
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	for _, c := range []*cobra.Command{progressLsCmd, progressShowCmd, progressResetCmd} {
		addProgressFlags(c)
		progressCmd.AddCommand(c)
	}
}
