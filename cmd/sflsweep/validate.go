package main

import (
	"fmt"

	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <definition>",
	Short: "Check a sweep definition without running anything",
	Long: `Loads the definition and prepares every configuration: rule coverage, case
names, declared parameter types and command-line encoding. Nothing is started.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := cli.Validate(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sweep %q is valid: %d configurations.\n", sw.Name(), sw.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
