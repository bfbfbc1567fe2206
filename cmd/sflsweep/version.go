package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sflsweep"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sflsweep",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sflsweep version %s\n", strings.TrimSpace(sflsweep.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
