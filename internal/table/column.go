package table

import (
	"cmp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column is a named sort key over records of type T. Less must be a strict
// ordering: Less(a, a) is false.
type Column[T any] struct {
	Name string
	Less func(a, b T) bool
}

// OrderedColumn sorts by any value with a natural order.
func OrderedColumn[T any, V cmp.Ordered](name string, value func(T) V) Column[T] {
	return Column[T]{
		Name: name,
		Less: func(a, b T) bool { return value(a) < value(b) },
	}
}

// StringColumn compares case-sensitively, the way a plain < on strings does.
func StringColumn[T any](name string, value func(T) string) Column[T] {
	return OrderedColumn(name, value)
}

// FoldedStringColumn compares case-insensitively.
func FoldedStringColumn[T any](name string, value func(T) string) Column[T] {
	return Column[T]{
		Name: name,
		Less: func(a, b T) bool { return strings.ToLower(value(a)) < strings.ToLower(value(b)) },
	}
}

func DecimalColumn[T any](name string, value func(T) decimal.Decimal) Column[T] {
	return Column[T]{
		Name: name,
		Less: func(a, b T) bool { return value(a).LessThan(value(b)) },
	}
}

func TimeColumn[T any](name string, value func(T) time.Time) Column[T] {
	return Column[T]{
		Name: name,
		Less: func(a, b T) bool { return value(a).Before(value(b)) },
	}
}

// LessColumn adapts a value type that brings its own ordering, such as a calendar date.
func LessColumn[T, V any](name string, value func(T) V, less func(a, b V) bool) Column[T] {
	return Column[T]{
		Name: name,
		Less: func(a, b T) bool { return less(value(a), value(b)) },
	}
}
