package main

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version number of schedeval",
	Args:  cobra.NoArgs,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("schedeval version %s (%s)\n", version, commit[:min(len(commit), 7)])
	},
}
