package cmd

import (
	"context"

	"github.com/frahmantamala/expense-client/internal/analytics"
	"github.com/spf13/cobra"
)

var openOptions tableOptions

var routeCmd = &cobra.Command{
	Use:   "route <path>",
	Short: "Show which view a path resolves to for the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, func(_ context.Context, deps *Dependencies) error {
			printResolution(cmd.OutOrStdout(), deps.Navigator.Navigate(args[0]))
			return nil
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Navigate to a path and render the view it lands on",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			out := cmd.OutOrStdout()
			res := deps.Navigator.Navigate(args[0])
			printResolution(out, res)
			return renderView(ctx, out, deps, res, openOptions, analytics.Filter{})
		})
	},
}

func init() {
	openOptions.register(openCmd)
}
