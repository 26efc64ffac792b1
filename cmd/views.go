package cmd

import (
	"context"
	"fmt"
	"io"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/analytics"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/frahmantamala/expense-client/internal/table"
	"github.com/spf13/cobra"
)

// tableOptions are the sort and paging flags shared by tabular commands.
type tableOptions struct {
	sort     string
	desc     bool
	page     int
	pageSize int
}

func (o *tableOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.sort, "sort", table.DefaultSortKey, "column to sort by")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&o.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&o.pageSize, "page-size", table.DefaultPageSize, fmt.Sprintf("rows per page, one of %v", table.PageSizes))
}

func (o tableOptions) apply(e *table.Engine[expense.Expense]) error {
	dir := table.Ascending
	if o.desc {
		dir = table.Descending
	}
	if err := e.SortBy(o.sort, dir); err != nil {
		return err
	}
	if err := e.SetPageSize(o.pageSize); err != nil {
		return err
	}
	return e.SetPage(o.page - 1)
}

// guard navigates to path and fails unless it lands on want.
func guard(deps *Dependencies, path string, want router.View) (router.Resolution, error) {
	res := deps.Navigator.Navigate(path)
	if res.View == want {
		return res, nil
	}
	if res.View == router.ViewLogin {
		return res, errors.NewUnauthorizedError("Not signed in; run login first", errors.ErrCodeNotSignedIn)
	}
	return res, errors.NewForbiddenError(fmt.Sprintf("%s opens the %s view for this account", path, res.View), errors.ErrCodeRouteRedirected)
}

// renderView draws whatever view a resolution landed on.
func renderView(ctx context.Context, w io.Writer, deps *Dependencies, res router.Resolution, opts tableOptions, filter analytics.Filter) error {
	switch res.View {
	case router.ViewExpenseList:
		return showExpenseList(ctx, w, deps, opts)
	case router.ViewDashboard:
		return showDashboard(ctx, w, deps, opts, filter)
	case router.ViewExpenseDetail:
		return showExpenseDetail(ctx, w, deps, res)
	case router.ViewLogin:
		fmt.Fprintln(w, "Sign in with: expense-client login")
	case router.ViewRegister:
		fmt.Fprintln(w, "Create an account with: expense-client register")
	}
	return nil
}

func showExpenseList(ctx context.Context, w io.Writer, deps *Dependencies, opts tableOptions) error {
	list := expense.NewExpenseList(deps.Expenses, deps.Logger)
	list.Mount()
	defer list.Unmount()

	if err := opts.apply(list.Engine()); err != nil {
		return err
	}
	if err := list.Load(ctx); err != nil {
		return err
	}
	printExpensePage(w, list.Page(), list.Engine().Columns())
	return nil
}

func showDashboard(ctx context.Context, w io.Writer, deps *Dependencies, opts tableOptions, filter analytics.Filter) error {
	dash := analytics.NewDashboard(deps.Client, deps.Expenses, deps.Logger)
	dash.Mount()
	defer dash.Unmount()

	if err := filter.Validate(); err != nil {
		return err
	}
	// the snapshot and the table fail independently
	if err := dash.Load(ctx); err != nil {
		fmt.Fprintf(w, "Analytics: %s\n\n", displayMessage(err))
	} else {
		printSnapshot(w, dash)
		fmt.Fprintln(w)
	}

	if err := dash.ApplyFilters(ctx, filter); err != nil {
		return err
	}
	if err := opts.apply(dash.Engine()); err != nil {
		return err
	}
	printExpensePage(w, dash.Page(), dash.Engine().Columns())
	return nil
}

func showExpenseDetail(ctx context.Context, w io.Writer, deps *Dependencies, res router.Resolution) error {
	detail := expense.NewDetail(deps.Expenses, deps.Logger)
	detail.Mount()
	defer detail.Unmount()

	if err := detail.Load(ctx, res.ExpenseID); err != nil {
		return err
	}
	e := detail.Expense()
	printExpense(w, *e)

	flow := expense.NewTransitionFlow(*e, res.CanTransition, deps.Expenses, detail.Replace, deps.Logger)
	if actions := flow.Actions(); len(actions) > 0 {
		fmt.Fprintf(w, "\nActions: %v\n", actions)
	}
	return nil
}

func displayMessage(err error) string {
	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.DisplayMessage()
	}
	return err.Error()
}
