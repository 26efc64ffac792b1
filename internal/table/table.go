package table

import (
	"fmt"
	"slices"

	errors "github.com/frahmantamala/expense-client/internal"
)

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

const (
	DefaultSortKey  = "date"
	DefaultPageSize = 5
)

// PageSizes are the only page sizes a table offers.
var PageSizes = []int{5, 10, 25}

func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// State is the per-table-instance view state. It is never persisted.
type State struct {
	SortKey   string    `json:"sort_key"`
	Direction Direction `json:"direction"`
	PageIndex int       `json:"page_index"`
	PageSize  int       `json:"page_size"`
}

func DefaultState() State {
	return State{
		SortKey:   DefaultSortKey,
		Direction: Ascending,
		PageIndex: 0,
		PageSize:  DefaultPageSize,
	}
}

// Page is the visible slice of a table plus what a pager needs to draw itself.
type Page[T any] struct {
	Rows      []T
	Total     int
	PageCount int
	State     State
}

// Compare orders a and b by col in direction dir using only strict less-than
// tests; it returns 0 when neither is less than the other.
func Compare[T any](col Column[T], dir Direction, a, b T) int {
	if dir == Descending {
		a, b = b, a
	}
	switch {
	case col.Less(a, b):
		return -1
	case col.Less(b, a):
		return 1
	default:
		return 0
	}
}

type indexed[T any] struct {
	record T
	index  int
}

// Sort returns a new slice ordered by col. Equal keys keep their input order
// because ties fall back to the original index, independent of the
// stability of the underlying sort.
func Sort[T any](records []T, col Column[T], dir Direction) []T {
	decorated := make([]indexed[T], len(records))
	for i, r := range records {
		decorated[i] = indexed[T]{record: r, index: i}
	}

	slices.SortFunc(decorated, func(a, b indexed[T]) int {
		if c := Compare(col, dir, a.record, b.record); c != 0 {
			return c
		}
		return a.index - b.index
	})

	sorted := make([]T, len(decorated))
	for i, d := range decorated {
		sorted[i] = d.record
	}
	return sorted
}

// Paginate returns records [pageIndex*pageSize, pageIndex*pageSize+pageSize).
// Out of range pages yield an empty slice.
func Paginate[T any](sorted []T, pageIndex, pageSize int) []T {
	if pageIndex < 0 || pageSize <= 0 {
		return []T{}
	}
	start := pageIndex * pageSize
	if start >= len(sorted) {
		return []T{}
	}
	end := min(start+pageSize, len(sorted))
	return slices.Clone(sorted[start:end])
}

func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func findColumn[T any](columns []Column[T], name string) (Column[T], bool) {
	for _, c := range columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Apply is the whole engine as a pure function of its inputs.
func Apply[T any](records []T, columns []Column[T], state State) (Page[T], error) {
	col, ok := findColumn(columns, state.SortKey)
	if !ok {
		return Page[T]{}, errors.NewValidationError(fmt.Sprintf("unknown column %q", state.SortKey), errors.ErrCodeUnknownColumn)
	}
	sorted := Sort(records, col, state.Direction)
	return Page[T]{
		Rows:      Paginate(sorted, state.PageIndex, state.PageSize),
		Total:     len(sorted),
		PageCount: PageCount(len(sorted), state.PageSize),
		State:     state,
	}, nil
}
