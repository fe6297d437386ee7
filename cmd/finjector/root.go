package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "finjector",
	Short: "finjector is a runtime fault-injection registry",
	Long: `finjector lets subsystems expose named injection points and lets operators arm them
with exceptions, delays or process termination while the program runs.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (default finjector.yaml)")
	rootCmd.PersistentFlags().String("admin", "http://localhost:8080", "Base URL of a running admin API")
}
