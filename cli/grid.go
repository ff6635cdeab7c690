package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gammadia/schedeval/flags"
	"github.com/gammadia/schedeval/search"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "List the configurations of a parameter grid",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := loadGrid()
		if err != nil {
			return err
		}
		printGrid(cmd, grid)
		return nil
	},
}

func init() {
	gridCmd.Flags().String(flags.Grid, "", "YAML grid file (default grid if empty)")
}

func loadGrid() (search.Grid, error) {
	file := viper.GetString(flags.Grid)
	if file == "" {
		return search.DefaultGrid(), nil
	}

	grid, err := search.LoadGrid(file)
	if err != nil {
		return search.Grid{}, fmt.Errorf("failed to load grid from '%s': %w", file, err)
	}
	return grid, nil
}

func printGrid(cmd *cobra.Command, grid search.Grid) {
	for i, configuration := range grid.Configurations() {
		line := fmt.Sprintf("%3d  %s", i+1, configuration)
		if err := configuration.Validate(); err != nil {
			line += "  " + color.HiYellowString("(skipped: %s)", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d configurations\n", grid.Size())
}
