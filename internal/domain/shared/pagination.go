package shared

import "context"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Pagination selects one page of a list. Page is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

// DefaultPagination returns the first page with the default limit.
func DefaultPagination() Pagination {
	return Pagination{Page: 1, Limit: DefaultPageLimit}
}

// Normalize clamps page and limit into their allowed ranges.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// HasMore reports whether rows remain after this page given the total count.
func (p Pagination) HasMore(total int) bool {
	n := p.Normalize()
	return n.Page*n.Limit < total
}

// Transactor runs fn as a single atomic unit of work. Repository calls made
// with the context passed to fn join the unit; returning an error from fn
// rolls every write back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
