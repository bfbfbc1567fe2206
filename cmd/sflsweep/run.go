package main

import (
	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <definition>",
	Short: "Run every configuration of a sweep",
	Long: `Expands the sweep definition and starts the program once per configuration,
in order. Progress is saved after each run so an interrupted sweep can be
continued with --resume. The command exits non-zero when the sweep does not
complete.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keepGoing, _ := cmd.Flags().GetBool("keep-going")
		resume, _ := cmd.Flags().GetBool("resume")
		from, _ := cmd.Flags().GetInt("from")
		format, _ := cmd.Flags().GetString("format")
		statusAddr, _ := cmd.Flags().GetString("status-addr")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		selector, _ := cmd.Flags().GetString("on-unresolved")
		logLevel, _ := cmd.Flags().GetString("log-level")
		logFormat, _ := cmd.Flags().GetString("log-format")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		return cli.Execute(ctx, cli.RunOptions{
			Path:           args[0],
			KeepGoing:      keepGoing,
			Resume:         resume,
			From:           from,
			Format:         format,
			Progress:       progressOptions(cmd),
			StatusAddr:     statusAddr,
			DryRun:         dryRun,
			LogLevel:       logLevel,
			LogFormat:      logFormat,
			SelectorPolicy: selector,
			Stdout:         cmd.OutOrStdout(),
			Stderr:         cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("keep-going", false, "Continue after a failed run instead of stopping the sweep")
	runCmd.Flags().Bool("resume", false, "Continue from the saved progress of this sweep")
	runCmd.Flags().Int("from", -1, "Start at this configuration index (overrides --resume)")
	runCmd.Flags().String("format", cli.FormatText, "Report format (text, json)")
	runCmd.Flags().String("status-addr", "", "Serve /status and /metrics on this address while running")
	runCmd.Flags().Bool("dry-run", false, "Check the sweep and print the commands without running them")
	runCmd.Flags().String("on-unresolved", "", "Policy for configurations no rule matches (fatal, skip); default from the definition")
	addProgressFlags(runCmd)
}
