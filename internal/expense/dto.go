package expense

import (
	"strings"
	"time"

	"github.com/frahmantamala/expense-client/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/shopspring/decimal"
)

// YearWindow is how many years back an expense date may go.
const YearWindow = 5

// SubmissionDTO holds the form fields exactly as typed.
type SubmissionDTO struct {
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Validate checks the fields in display order. The first error detail is the
// message the form shows; the rest are kept for per-field hints.
func (d SubmissionDTO) Validate(categories []string, now time.Time) error {
	required := validation.NewValidator()
	for _, f := range []struct{ name, value string }{
		{"category", d.Category},
		{"amount", d.Amount},
		{"date", d.Date},
	} {
		required.Field(f.name, f.value).Required("Please fill in all required fields")
	}
	if err := required.Validate(); err != nil {
		return err
	}

	currentYear := now.Year()
	v := validation.NewValidator()
	v.Field("category", d.Category).
		OneOf(categories, "Please select a valid category")
	v.Field("amount", d.Amount).
		PositiveDecimal("Amount must be a valid positive number")
	v.Field("date", d.Date).
		DateFormat("Date must be in the format YYYY-MM-DD").
		YearBetween(currentYear-YearWindow, currentYear, "").
		CalendarDate("Invalid date")
	v.Field("description", d.Description).
		Required("Description is required").
		MaxLength(MaxDescriptionLength, "Description cannot exceed 200 characters")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Request converts a validated DTO into the POST /expenses body.
func (d SubmissionDTO) Request() (expenseDatamodel.CreateRequest, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil {
		return expenseDatamodel.CreateRequest{}, err
	}
	return expenseDatamodel.CreateRequest{
		Category:    d.Category,
		Amount:      amount.InexactFloat64(),
		Date:        d.Date,
		Description: d.Description,
	}, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
