package mockapi

import (
	"fmt"
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
)

// Seeded accounts for local development and tests.
const (
	AdminEmail       = "admin@example.com"
	AdminPassword    = "admin123"
	EmployeeEmail    = "employee@example.com"
	EmployeePassword = "employee123"
)

type seedExpense struct {
	category    string
	amount      float64
	monthsAgo   int
	day         int
	description string
	status      expenseDatamodel.Status
	remarks     string
}

var seedExpenses = []seedExpense{
	{"Food", 45.20, 0, 3, "Team lunch", expenseDatamodel.StatusPending, ""},
	{"Travel", 320, 0, 5, "Client visit train tickets", expenseDatamodel.StatusApproved, ""},
	{"Shopping", 89.99, 1, 12, "Printer toner", expenseDatamodel.StatusRejected, "Use the supplies budget"},
	{"Education", 15, 1, 20, "Online course", expenseDatamodel.StatusOnHold, "Waiting on license review"},
	{"Food", 18.50, 2, 8, "Late night dinner", expenseDatamodel.StatusApproved, ""},
}

// Seed creates the admin and employee accounts and a spread of expenses
// across categories, months and statuses.
func Seed(store *Store, auth *Auth, now time.Time) error {
	adminHash, err := auth.HashPassword(AdminPassword)
	if err != nil {
		return err
	}
	if _, err := store.CreateUser("Admin", AdminEmail, adminHash, user.RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	employeeHash, err := auth.HashPassword(EmployeePassword)
	if err != nil {
		return err
	}
	employee, err := store.CreateUser("Employee", EmployeeEmail, employeeHash, user.RoleEmployee)
	if err != nil {
		return fmt.Errorf("seed employee: %w", err)
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for _, s := range seedExpenses {
		date := first.AddDate(0, -s.monthsAgo, s.day-1)
		e, err := store.AddExpense(employee, expenseDatamodel.CreateRequest{
			Category:    s.category,
			Amount:      s.amount,
			Date:        date.Format(expenseDatamodel.DateLayout),
			Description: s.description,
		})
		if err != nil {
			return fmt.Errorf("seed expense %q: %w", s.description, err)
		}
		if s.status == expenseDatamodel.StatusPending {
			continue
		}
		if _, err := store.UpdateStatus(e.ID, expenseDatamodel.StatusUpdateRequest{Status: s.status, Remarks: s.remarks}); err != nil {
			return fmt.Errorf("seed status %q: %w", s.description, err)
		}
	}
	return nil
}
