package main

import (
	"fmt"
	"os"

	"github.com/aretw0/sflsweep/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sflsweep",
	Short: "sflsweep runs parameter sweeps of split-learning attack experiments",
	Long: `sflsweep expands a sweep definition (YAML, JSON or HCL) into an ordered list of
run configurations and starts the experiment program once per configuration,
one run at a time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}

func addProgressFlags(cmd *cobra.Command) {
	cmd.Flags().String("progress-dir", "", "Directory for progress files (default .sflsweep/progress)")
	cmd.Flags().String("redis-addr", "", "Keep progress in Redis at this address instead of files")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database number")
	cmd.Flags().Duration("redis-ttl", 0, "Expire saved progress after this long (0 keeps it)")
}

func progressOptions(cmd *cobra.Command) cli.ProgressOptions {
	dir, _ := cmd.Flags().GetString("progress-dir")
	addr, _ := cmd.Flags().GetString("redis-addr")
	password, _ := cmd.Flags().GetString("redis-password")
	db, _ := cmd.Flags().GetInt("redis-db")
	ttl, _ := cmd.Flags().GetDuration("redis-ttl")
	if password == "" {
		password = os.Getenv("SFLSWEEP_REDIS_PASSWORD")
	}
	return cli.ProgressOptions{
		Dir:           dir,
		RedisAddr:     addr,
		RedisPassword: password,
		RedisDB:       db,
		RedisTTL:      ttl,
	}
}
