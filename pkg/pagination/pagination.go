// Package pagination provides skip/limit pagination utilities.
package pagination

// DefaultLimit is the number of records returned when no limit is given.
const DefaultLimit = 100

// DefaultMaxLimit bounds the limit when no explicit maximum is configured.
const DefaultMaxLimit = 500

// Pagination holds skip/limit parameters.
type Pagination struct {
	Skip  int
	Limit int
}

// New creates a Pagination with defaults applied and the limit clamped to max.
// A max of zero or less falls back to DefaultMaxLimit.
func New(skip, limit, max int) Pagination {
	if skip < 0 {
		skip = 0
	}
	if max <= 0 {
		max = DefaultMaxLimit
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > max {
		limit = max
	}
	return Pagination{Skip: skip, Limit: limit}
}

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	return p.Skip
}

// Result represents a paginated result set.
type Result[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

// NewResult creates a new paginated Result.
func NewResult[T any](data []T, total int64, p Pagination) Result[T] {
	if data == nil {
		data = make([]T, 0)
	}
	return Result[T]{
		Data:  data,
		Total: total,
		Skip:  p.Skip,
		Limit: p.Limit,
	}
}
