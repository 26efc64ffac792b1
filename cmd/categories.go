package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/expense-client/internal/category"
	"github.com/frahmantamala/expense-client/pkg/logger"
	"github.com/spf13/cobra"
)

var categoriesJSON bool

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the expense categories the form accepts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := setup(); err != nil {
			return err
		}
		svc := category.NewService(category.NewStaticRepository(), logger.L())
		categories, err := svc.GetAllCategories()
		if err != nil {
			return err
		}

		if categoriesJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(category.NewCategoriesResponse(categories))
		}

		tw := newTabWriter(cmd.OutOrStdout())
		fmt.Fprintln(tw, "NAME\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Description)
		}
		return tw.Flush()
	},
}

func init() {
	categoriesCmd.Flags().BoolVar(&categoriesJSON, "json", false, "print the catalog as JSON")
}
