package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/flags"
	"github.com/gammadia/schedeval/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// Versioning information set at build time
var version, commit = "dev", "n/a"

var schedevalCmd = &cobra.Command{
	Use:   "schedeval",
	Short: "Compare two scheduling policies and tune a simulator's parameters.",

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := flags.Bind(cmd.Flags()); err != nil {
			return err
		}
		return log.Init()
	},
}

func init() {
	schedevalCmd.AddCommand(analyzeCmd)
	schedevalCmd.AddCommand(gridCmd)
	schedevalCmd.AddCommand(tuneCmd)
	schedevalCmd.AddCommand(versionCmd)

	flags.Global(schedevalCmd.PersistentFlags())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedevalCmd.SetOut(os.Stdout)
	if err := schedevalCmd.ExecuteContext(ctx); err != nil {
		lo.Must(fmt.Fprintln(os.Stderr, color.HiRedString(fmt.Sprint(err))))
		os.Exit(1)
	}
}
