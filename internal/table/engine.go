package table

import (
	"fmt"
	"sync"

	errors "github.com/frahmantamala/expense-client/internal"
)

// Engine holds the sort and paging state of one mounted table.
type Engine[T any] struct {
	mu      sync.Mutex
	columns []Column[T]
	state   State
}

// New builds an engine over columns. The default sort key must be one of them.
func New[T any](columns ...Column[T]) (*Engine[T], error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table: at least one column is required")
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.Name == "" || c.Less == nil {
			return nil, fmt.Errorf("table: column %q is incomplete", c.Name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("table: duplicate column %q", c.Name)
		}
		seen[c.Name] = true
	}
	if !seen[DefaultSortKey] {
		return nil, fmt.Errorf("table: default sort column %q missing", DefaultSortKey)
	}
	return &Engine[T]{columns: columns, state: DefaultState()}, nil
}

// MustNew is New for column sets fixed at compile time.
func MustNew[T any](columns ...Column[T]) *Engine[T] {
	e, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine[T]) Columns() []string {
	names := make([]string, len(e.columns))
	for i, c := range e.columns {
		names[i] = c.Name
	}
	return names
}

func (e *Engine[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset restores the defaults a freshly mounted table starts with.
func (e *Engine[T]) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = DefaultState()
}

// Toggle sorts by name: the active column flips direction, any other column
// becomes active in ascending order.
func (e *Engine[T]) Toggle(name string) error {
	if _, ok := findColumn(e.columns, name); !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown column %q", name), errors.ErrCodeUnknownColumn)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.SortKey == name {
		e.state.Direction = e.state.Direction.Flip()
		return nil
	}
	e.state.SortKey = name
	e.state.Direction = Ascending
	return nil
}

// SortBy sets column and direction directly, as a CLI flag would.
func (e *Engine[T]) SortBy(name string, dir Direction) error {
	if _, ok := findColumn(e.columns, name); !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown column %q", name), errors.ErrCodeUnknownColumn)
	}
	if dir != Ascending && dir != Descending {
		return errors.NewValidationError(fmt.Sprintf("unknown direction %q", dir), errors.ErrCodeValidationFailed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.SortKey = name
	e.state.Direction = dir
	return nil
}

// SetPage moves to page i. The index is not checked against the record count.
func (e *Engine[T]) SetPage(i int) error {
	if i < 0 {
		return errors.NewValidationError("page index cannot be negative", errors.ErrCodeInvalidPage)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PageIndex = i
	return nil
}

// SetPageSize changes the page size and returns to the first page.
func (e *Engine[T]) SetPageSize(n int) error {
	if !ValidPageSize(n) {
		return errors.NewValidationError(fmt.Sprintf("page size must be one of %v", PageSizes), errors.ErrCodeInvalidPageSize)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PageSize = n
	e.state.PageIndex = 0
	return nil
}

// View renders records through the current state.
func (e *Engine[T]) View(records []T) Page[T] {
	state := e.State()
	page, err := Apply(records, e.columns, state)
	if err != nil {
		// unreachable: every state transition checks the column exists
		panic(err)
	}
	return page
}
