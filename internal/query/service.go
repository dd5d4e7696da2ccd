// internal/query/service.go
package query

import "context"

// Service defines the read-only projections consumed by reporting and UI
// collaborators. These reads are tolerant of running slightly behind a
// concurrent mutation and must never gate a write decision; only the
// circulation engine's atomic path does that.
type Service interface {
	ListOpenLoans(ctx context.Context) ([]*LoanView, error)
	ListLoans(ctx context.Context) ([]*LoanView, error)
	ListAvailableItems(ctx context.Context, minCopies int) ([]*AvailableItem, error)
	CountOpenLoans(ctx context.Context) (int, error)
	SumAvailableCopies(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)
}
