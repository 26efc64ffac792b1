package cmd

import (
	"context"

	"github.com/frahmantamala/expense-client/internal/analytics"
	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/spf13/cobra"
)

var (
	dashboardOptions tableOptions
	dashboardFilter  analytics.Filter
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show spend analytics and all submitted expenses (admin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			if _, err := guard(deps, router.PathDashboard, router.ViewDashboard); err != nil {
				return err
			}
			return showDashboard(ctx, cmd.OutOrStdout(), deps, dashboardOptions, dashboardFilter)
		})
	},
}

func init() {
	dashboardOptions.register(dashboardCmd)

	f := dashboardCmd.Flags()
	f.StringVar(&dashboardFilter.StartDate, "start", "", "earliest date, YYYY-MM-DD")
	f.StringVar(&dashboardFilter.EndDate, "end", "", "latest date, YYYY-MM-DD")
	f.StringVar(&dashboardFilter.Category, "category", "", "only this category")
	f.StringVar(&dashboardFilter.Status, "status", "", "PENDING, APPROVED, REJECTED or ONHOLD")
}
