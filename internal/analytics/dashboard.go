package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	analyticsDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/analytics"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/expense"
	"github.com/frahmantamala/expense-client/internal/table"
	"github.com/shopspring/decimal"
)

const MsgFetchFailed = "Failed to fetch analytics"

// SnapshotSource fetches the pre-aggregated figures.
type SnapshotSource interface {
	Analytics(ctx context.Context) (*analyticsDatamodel.Snapshot, error)
}

// Filter narrows the dashboard's expense table. Empty fields match everything.
type Filter struct {
	StartDate string
	EndDate   string
	Category  string
	Status    string
}

func (f Filter) Validate() error {
	if f.Status != "" {
		if _, err := expenseDatamodel.ParseStatus(f.Status); err != nil {
			return errors.NewValidationFieldError("status", fmt.Sprintf("unknown status %q", f.Status), errors.ErrCodeInvalidStatus)
		}
	}
	for _, d := range []struct{ field, value string }{
		{"startDate", f.StartDate},
		{"endDate", f.EndDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := expenseDatamodel.ParseDate(d.value); err != nil {
			return errors.NewValidationFieldError(d.field, "Date must be in the format YYYY-MM-DD", errors.ErrCodeInvalidDate)
		}
	}
	return nil
}

func (f Filter) listFilter() expenseDatamodel.ListFilter {
	return expenseDatamodel.ListFilter{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Category:  f.Category,
		Status:    f.Status,
	}
}

// Dashboard is the admin analytics page: three aggregate lists and a
// filterable table of every employee's expenses. The two halves load
// independently and fail independently.
type Dashboard struct {
	mu      sync.Mutex
	mounted bool

	snapGen     uint64
	snapshot    *analyticsDatamodel.Snapshot
	snapLoading bool
	snapErr     error

	listGen     uint64
	filter      Filter
	expenses    []expense.Expense
	listLoading bool
	listErr     error

	source SnapshotSource
	lister expense.Lister
	engine *table.Engine[expense.Expense]
	logger *slog.Logger
}

func NewDashboard(source SnapshotSource, lister expense.Lister, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		source: source,
		lister: lister,
		engine: table.MustNew(expense.DashboardColumns()...),
		logger: logger,
	}
}

func (d *Dashboard) Mount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mounted = true
	d.snapGen++
	d.listGen++
	d.snapshot = nil
	d.snapErr = nil
	d.expenses = nil
	d.listErr = nil
	d.filter = Filter{}
	d.engine.Reset()
}

// Unmount discards any response still in flight.
func (d *Dashboard) Unmount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mounted = false
	d.snapGen++
	d.listGen++
	d.snapLoading = false
	d.listLoading = false
}

// Load fetches the analytics snapshot, replacing the previous one wholesale.
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return nil
	}
	d.snapGen++
	gen := d.snapGen
	d.snapLoading = true
	d.snapErr = nil
	d.mu.Unlock()

	snap, err := d.source.Analytics(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.mounted || d.snapGen != gen {
		d.logger.Debug("dropping stale analytics response")
		return nil
	}
	d.snapLoading = false
	if err != nil {
		message := apiclient.RemoteMessage(err)
		if message == "" {
			message = MsgFetchFailed
		}
		d.logger.Error("failed to fetch analytics", "error", err)
		d.snapErr = errors.NewFetchError(message, err)
		return d.snapErr
	}
	d.snapshot = snap
	return nil
}

// ApplyFilters refetches the expense table with f. The table keeps its sort
// but returns to the first page.
func (d *Dashboard) ApplyFilters(ctx context.Context, f Filter) error {
	if err := f.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return nil
	}
	d.listGen++
	gen := d.listGen
	d.filter = f
	d.listLoading = true
	d.listErr = nil
	d.mu.Unlock()

	records, err := d.lister.List(ctx, f.listFilter())

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.mounted || d.listGen != gen {
		d.logger.Debug("dropping stale dashboard expenses", "filter", f)
		return nil
	}
	d.listLoading = false
	if err != nil {
		d.listErr = err
		return err
	}
	d.expenses = records
	if err := d.engine.SetPage(0); err != nil {
		return err
	}
	return nil
}

func (d *Dashboard) Filter() Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// Snapshot returns the last loaded snapshot, or nil.
func (d *Dashboard) Snapshot() *analyticsDatamodel.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot.Clone()
}

// Categories are the filter options: every category that has any spend.
func (d *Dashboard) Categories() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snapshot == nil {
		return nil
	}
	names := make([]string, 0, len(d.snapshot.ByCategory))
	seen := make(map[string]bool, len(d.snapshot.ByCategory))
	for _, c := range d.snapshot.ByCategory {
		if !seen[c.Category] {
			seen[c.Category] = true
			names = append(names, c.Category)
		}
	}
	return names
}

// Total sums spend across all categories.
func (d *Dashboard) Total() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := decimal.Zero
	if d.snapshot == nil {
		return total
	}
	for _, c := range d.snapshot.ByCategory {
		total = total.Add(c.SummedAmount)
	}
	return total
}

func (d *Dashboard) SnapshotErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapErr
}

func (d *Dashboard) ExpensesErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listErr
}

func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapLoading || d.listLoading
}

func (d *Dashboard) Engine() *table.Engine[expense.Expense] {
	return d.engine
}

func (d *Dashboard) Page() table.Page[expense.Expense] {
	d.mu.Lock()
	records := d.expenses
	d.mu.Unlock()
	return d.engine.View(records)
}
