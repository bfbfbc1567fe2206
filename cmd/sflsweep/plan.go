package main

import (
	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <definition>",
	Short: "List the configurations of a sweep without running them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pretty, _ := cmd.Flags().GetBool("pretty")
		commands, _ := cmd.Flags().GetBool("commands")
		from, _ := cmd.Flags().GetInt("from")

		return cli.PlanFile(cmd.OutOrStdout(), args[0], cli.PlanOptions{
			Pretty:   pretty,
			Commands: commands,
			From:     from,
		})
	},
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Bool("pretty", false, "Render the plan as a table for the terminal")
	planCmd.Flags().Bool("commands", false, "Show the command line of each run")
	planCmd.Flags().Int("from", 0, "List from this configuration index")
}
