package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"

	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/spf13/cobra"
)

var (
	listOptions    tableOptions
	submitFields   expense.SubmissionDTO
	submitFile     string
	transitionNote string
)

var expensesCmd = &cobra.Command{
	Use:     "expenses",
	Aliases: []string{"expense"},
	Short:   "List, submit and review expenses",
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your expenses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			if _, err := guard(deps, router.PathExpenses, router.ViewExpenseList); err != nil {
				return err
			}
			return showExpenseList(ctx, cmd.OutOrStdout(), deps, listOptions)
		})
	},
}

var expensesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			res, err := guard(deps, detailPath(args[0]), router.ViewExpenseDetail)
			if err != nil {
				return err
			}
			return showExpenseDetail(ctx, cmd.OutOrStdout(), deps, res)
		})
	},
}

var expensesSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new expense",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
			return runSubmit(ctx, cmd.OutOrStdout(), deps)
		})
	},
}

var expensesApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve an expense (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], expenseDatamodel.StatusApproved)
	},
}

var expensesRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject an expense with remarks (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], expenseDatamodel.StatusRejected)
	},
}

var expensesHoldCmd = &cobra.Command{
	Use:   "hold <id>",
	Short: "Put an expense on hold with remarks (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], expenseDatamodel.StatusOnHold)
	},
}

func init() {
	listOptions.register(expensesListCmd)

	f := expensesSubmitCmd.Flags()
	f.StringVar(&submitFields.Category, "category", "", "expense category")
	f.StringVar(&submitFields.Amount, "amount", "", "amount, e.g. 12.50")
	f.StringVar(&submitFields.Date, "date", "", "date as YYYY-MM-DD")
	f.StringVar(&submitFields.Description, "description", "", "what the expense was for")
	f.StringVar(&submitFile, "attachment", "", "receipt to preview alongside the submission")

	for _, c := range []*cobra.Command{expensesRejectCmd, expensesHoldCmd} {
		c.Flags().StringVarP(&transitionNote, "remarks", "m", "", "reason shown to the submitter")
	}

	expensesCmd.AddCommand(expensesListCmd, expensesShowCmd, expensesSubmitCmd,
		expensesApproveCmd, expensesRejectCmd, expensesHoldCmd)
}

// withDependencies runs fn with the wired client and closes it afterwards.
func withDependencies(cmd *cobra.Command, fn func(ctx context.Context, deps *Dependencies) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	deps, err := initializeDependencies(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()
	return fn(ctx, deps)
}

func detailPath(id string) string {
	return router.PathExpenses + "/" + url.PathEscape(id)
}

func runSubmit(ctx context.Context, out io.Writer, deps *Dependencies) error {
	if _, err := guard(deps, router.PathExpenses, router.ViewExpenseList); err != nil {
		return err
	}

	list := expense.NewExpenseList(deps.Expenses, deps.Logger)
	list.Mount()
	defer list.Unmount()

	form := expense.NewSubmissionForm(deps.Expenses, deps.Categories.Names, deps.Config.Forms.FeedbackTTL, deps.Logger,
		expense.OnSubmitted(list.Refresh))
	defer form.Close()

	form.SetFields(submitFields)
	if submitFile != "" {
		a, err := expense.OpenAttachment(submitFile)
		if err != nil {
			return err
		}
		form.Attach(a)
		fmt.Fprintf(out, "Attachment: %s (%s, %d bytes, preview %s)\n", a.Name, a.ContentType, a.Size, a.Preview)
	}

	created, err := form.Submit(ctx)
	if fb := form.Feedback(); fb != nil && err == nil {
		fmt.Fprintln(out, fb.Message)
	}
	if err != nil {
		return err
	}

	printExpense(out, *created)
	fmt.Fprintln(out)
	printExpensePage(out, list.Page(), list.Engine().Columns())
	return nil
}

func runTransition(cmd *cobra.Command, id string, status expenseDatamodel.Status) error {
	return withDependencies(cmd, func(ctx context.Context, deps *Dependencies) error {
		out := cmd.OutOrStdout()
		res, err := guard(deps, detailPath(id), router.ViewExpenseDetail)
		if err != nil {
			return err
		}

		detail := expense.NewDetail(deps.Expenses, deps.Logger)
		detail.Mount()
		defer detail.Unmount()
		if err := detail.Load(ctx, res.ExpenseID); err != nil {
			return err
		}

		flow := expense.NewTransitionFlow(*detail.Expense(), res.CanTransition, deps.Expenses, detail.Replace, deps.Logger)
		if status == expenseDatamodel.StatusApproved {
			err = flow.Approve(ctx)
		} else {
			if err := flow.OpenRemarks(status); err != nil {
				return err
			}
			flow.SetRemarks(transitionNote)
			err = flow.Confirm(ctx)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Expense %s is now %s\n", id, status)
		printExpense(out, *detail.Expense())
		return nil
	})
}

