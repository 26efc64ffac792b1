package expense

import (
	"context"
	"log/slog"
	"sync"

	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/table"
)

type Lister interface {
	List(ctx context.Context, filter expenseDatamodel.ListFilter) ([]Expense, error)
}

type Getter interface {
	Get(ctx context.Context, id string) (*Expense, error)
}

// relevance tracks whether a view is still mounted and which request is the
// latest. A result is applied only if both still hold when it arrives.
type relevance struct {
	mounted    bool
	generation uint64
}

func (r *relevance) mount() {
	r.mounted = true
	r.generation++
}

func (r *relevance) unmount() {
	r.mounted = false
	r.generation++
}

func (r *relevance) begin() uint64 {
	r.generation++
	return r.generation
}

func (r *relevance) current(gen uint64) bool {
	return r.mounted && r.generation == gen
}

// ExpenseList is the employee's own expense table.
type ExpenseList struct {
	mu      sync.Mutex
	rel     relevance
	records []Expense
	loading bool
	err     error

	lister Lister
	engine *table.Engine[Expense]
	logger *slog.Logger
}

func NewExpenseList(lister Lister, logger *slog.Logger) *ExpenseList {
	return &ExpenseList{
		lister: lister,
		engine: table.MustNew(ListColumns()...),
		logger: logger,
	}
}

// Mount starts a fresh table: default sort, first page, no records.
func (l *ExpenseList) Mount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rel.mount()
	l.records = nil
	l.err = nil
	l.loading = false
	l.engine.Reset()
}

func (l *ExpenseList) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rel.unmount()
	l.loading = false
}

// Load fetches the list. A response for an unmounted or superseded load is
// dropped and Load returns nil.
func (l *ExpenseList) Load(ctx context.Context) error {
	l.mu.Lock()
	if !l.rel.mounted {
		l.mu.Unlock()
		return nil
	}
	gen := l.rel.begin()
	l.loading = true
	l.mu.Unlock()

	records, err := l.lister.List(ctx, expenseDatamodel.ListFilter{})

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.rel.current(gen) {
		l.logger.Debug("dropping stale expense list response", "generation", gen)
		return nil
	}
	l.loading = false
	if err != nil {
		l.err = err
		return err
	}
	l.err = nil
	l.records = records
	return nil
}

// Refresh reloads the list; it is the hook the submission form calls.
func (l *ExpenseList) Refresh(ctx context.Context) {
	if err := l.Load(ctx); err != nil {
		l.logger.Warn("expense list refresh failed", "error", err)
	}
}

func (l *ExpenseList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *ExpenseList) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *ExpenseList) Engine() *table.Engine[Expense] {
	return l.engine
}

// Page is the visible slice under the current sort and paging.
func (l *ExpenseList) Page() table.Page[Expense] {
	l.mu.Lock()
	records := l.records
	l.mu.Unlock()
	return l.engine.View(records)
}

// Detail shows a single expense.
type Detail struct {
	mu      sync.Mutex
	rel     relevance
	expense *Expense
	loading bool
	err     error

	getter Getter
	logger *slog.Logger
}

func NewDetail(getter Getter, logger *slog.Logger) *Detail {
	return &Detail{getter: getter, logger: logger}
}

func (d *Detail) Mount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rel.mount()
	d.expense = nil
	d.err = nil
	d.loading = false
}

func (d *Detail) Unmount() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rel.unmount()
	d.loading = false
}

func (d *Detail) Load(ctx context.Context, id string) error {
	d.mu.Lock()
	if !d.rel.mounted {
		d.mu.Unlock()
		return nil
	}
	gen := d.rel.begin()
	d.loading = true
	d.mu.Unlock()

	exp, err := d.getter.Get(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.rel.current(gen) {
		d.logger.Debug("dropping stale expense response", "expense_id", id)
		return nil
	}
	d.loading = false
	if err != nil {
		d.expense = nil
		d.err = err
		return err
	}
	d.err = nil
	d.expense = exp
	return nil
}

// Expense returns a copy of the loaded record, or nil.
func (d *Detail) Expense() *Expense {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.expense == nil {
		return nil
	}
	e := *d.expense
	return &e
}

// Replace swaps in an updated record, as a completed transition does.
func (d *Detail) Replace(e Expense) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expense = &e
}

func (d *Detail) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

func (d *Detail) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
