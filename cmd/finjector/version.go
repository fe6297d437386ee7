package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/finjector"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of finjector",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "finjector version %s\n", strings.TrimSpace(finjector.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
