package expense

import (
	"strings"

	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/table"
	"github.com/shopspring/decimal"
)

type (
	Expense       = expenseDatamodel.Expense
	CreateRequest = expenseDatamodel.CreateRequest
)

// Display messages for failed remote calls.
const (
	MsgFetchFailed      = "Failed to fetch expenses"
	MsgLoadFailed       = "Error loading expense."
	MsgSubmitFailed     = "Failed to add expense"
	MsgSubmitted        = "Your expense has been submitted successfully."
	MsgTransitionFailed = "Failed to update status."
)

// MaxDescriptionLength bounds the description in characters.
const MaxDescriptionLength = 200

func submitter(e Expense) string {
	if e.User == nil {
		return ""
	}
	return e.User.Name
}

// DashboardColumns are the sortable columns of the admin table.
func DashboardColumns() []table.Column[Expense] {
	return []table.Column[Expense]{
		table.LessColumn("date", func(e Expense) expenseDatamodel.Date { return e.Date }, expenseDatamodel.Date.Before),
		table.StringColumn("category", func(e Expense) string { return e.Category }),
		table.DecimalColumn("amount", func(e Expense) decimal.Decimal { return e.Amount }),
		table.FoldedStringColumn("description", func(e Expense) string { return e.Description }),
		table.StringColumn("status", func(e Expense) string { return string(e.Status) }),
		table.FoldedStringColumn("user", submitter),
		table.FoldedStringColumn("remarks", func(e Expense) string { return strings.TrimSpace(e.Remarks) }),
	}
}

// ListColumns are the sortable columns of an employee's own expense list.
func ListColumns() []table.Column[Expense] {
	columns := DashboardColumns()
	out := make([]table.Column[Expense], 0, len(columns)-1)
	for _, c := range columns {
		if c.Name != "user" {
			out = append(out, c)
		}
	}
	return out
}
