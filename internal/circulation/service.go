// internal/circulation/service.go
package circulation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pustaka/internal/catalog"
	"pustaka/internal/ledger"
	"pustaka/internal/member"
)

var (
	// ErrNoCopiesAvailable is the expected business outcome when every copy
	// of the item is lent out at decision time.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrInvalidDueDate is returned when the due date is not strictly after
	// the current date. Rejected before any mutation is attempted.
	ErrInvalidDueDate = errors.New("due date must be after today")

	// ErrConcurrentModification is returned when the retry budget for the
	// availability compare-and-set is exhausted. Transient; callers may
	// retry the whole operation.
	ErrConcurrentModification = errors.New("concurrent modification, retry budget exhausted")
)

// ItemStore is the slice of the catalog the engine consumes: a point read
// and the guarded availability write. Nothing else in the catalog concerns
// circulation.
type ItemStore interface {
	GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, newValue int) error
}

// MemberDirectory is the slice of the member roster the engine consumes.
type MemberDirectory interface {
	GetMember(ctx context.Context, id uuid.UUID) (*member.Member, error)
}

// LoanLedger is the engine-owned loan store.
type LoanLedger interface {
	InsertLoan(ctx context.Context, loan *ledger.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*ledger.Loan, error)
	LoanByIdempotencyKey(ctx context.Context, key string) (*ledger.Loan, error)
	CloseLoan(ctx context.Context, id uuid.UUID, returnedOn time.Time) error
	ReopenLoan(ctx context.Context, id uuid.UUID) error
}

// Service defines the circulation engine contract. These two operations are
// the only mutation path for available copies and loan status.
type Service interface {
	Borrow(ctx context.Context, req BorrowRequest) (*ledger.Loan, error)
	Return(ctx context.Context, loanID uuid.UUID) (*ledger.Loan, error)
}
