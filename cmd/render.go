package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/expense-client/internal/analytics"
	analyticsDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/analytics"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/internal/router"
	"github.com/frahmantamala/expense-client/internal/session"
	"github.com/frahmantamala/expense-client/internal/table"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printResolution(w io.Writer, res router.Resolution) {
	if res.Redirected {
		fmt.Fprintf(w, "-> %s (%s, redirected)\n", res.Path, res.View)
		return
	}
	fmt.Fprintf(w, "-> %s (%s)\n", res.Path, res.View)
}

func printSession(w io.Writer, s session.Session, home string) {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Name\t%s\n", s.User.Name)
	fmt.Fprintf(tw, "Email\t%s\n", s.User.Email)
	fmt.Fprintf(tw, "Role\t%s\n", s.User.Role)
	if exp, ok := s.TokenExpiry(); ok {
		fmt.Fprintf(tw, "Token expires\t%s\n", exp.Local().Format(time.RFC1123))
	}
	fmt.Fprintf(tw, "Home\t%s\n", home)
	tw.Flush()
}

// printExpensePage renders one page with the sort marker on the active header.
func printExpensePage(w io.Writer, page table.Page[expense.Expense], columns []string) {
	tw := newTabWriter(w)
	headers := make([]string, 0, len(columns)+1)
	headers = append(headers, "ID")
	for _, c := range columns {
		h := strings.ToUpper(c)
		if c == page.State.SortKey {
			if page.State.Direction == table.Ascending {
				h += " ^"
			} else {
				h += " v"
			}
		}
		headers = append(headers, h)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, e := range page.Rows {
		cells := []string{e.ID}
		for _, c := range columns {
			cells = append(cells, expenseCell(e, c))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if page.Total == 0 {
		fmt.Fprintln(w, "No expenses")
		return
	}
	fmt.Fprintf(w, "Page %d of %d (%d expenses, %d per page)\n",
		page.State.PageIndex+1, page.PageCount, page.Total, page.State.PageSize)
}

func expenseCell(e expense.Expense, column string) string {
	switch column {
	case "date":
		return e.Date.String()
	case "category":
		return e.Category
	case "amount":
		return e.Amount.StringFixed(2)
	case "description":
		return e.Description
	case "status":
		return string(e.Status)
	case "user":
		if e.User == nil {
			return ""
		}
		return e.User.Name
	case "remarks":
		return e.Remarks
	default:
		return ""
	}
}

func printExpense(w io.Writer, e expense.Expense) {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID\t%s\n", e.ID)
	fmt.Fprintf(tw, "Date\t%s\n", e.Date)
	fmt.Fprintf(tw, "Category\t%s\n", e.Category)
	fmt.Fprintf(tw, "Amount\t%s\n", e.Amount.StringFixed(2))
	fmt.Fprintf(tw, "Description\t%s\n", e.Description)
	fmt.Fprintf(tw, "Status\t%s\n", e.Status)
	if strings.TrimSpace(e.Remarks) != "" {
		fmt.Fprintf(tw, "Remarks\t%s\n", e.Remarks)
	}
	if e.User != nil {
		fmt.Fprintf(tw, "Submitted by\t%s <%s>\n", e.User.Name, e.User.Email)
	}
	tw.Flush()
}

func printSnapshot(w io.Writer, dash *analytics.Dashboard) {
	snap := dash.Snapshot()
	if snap == nil {
		return
	}
	fmt.Fprintf(w, "Total spend: %s\n\n", dash.Total().StringFixed(2))

	tw := newTabWriter(w)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT")
	for _, c := range snap.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", c.Category, c.SummedAmount.StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintln(w)

	tw = newTabWriter(w)
	fmt.Fprintln(tw, "MONTH\tTOTAL")
	for _, m := range snap.ByMonth {
		fmt.Fprintf(tw, "%s\t%s\n", m.Month, m.Total.StringFixed(2))
	}
	tw.Flush()
	fmt.Fprintln(w)

	printStatusCounts(w, snap.ByStatus)
}

func printStatusCounts(w io.Writer, counts []analyticsDatamodel.StatusCount) {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "STATUS\tCOUNT")
	for _, s := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", s.Status, s.Count)
	}
	tw.Flush()
}
