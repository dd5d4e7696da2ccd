// internal/ledger/service.go
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrLoanNotFound is returned when no loan exists for the given id.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrLoanAlreadyClosed is returned by CloseLoan when the loan was
	// already returned. Callers should treat it as "already done".
	ErrLoanAlreadyClosed = errors.New("loan already closed")

	// ErrDuplicateIdempotencyKey is returned by InsertLoan when a loan with
	// the same caller-supplied idempotency key was already committed.
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
)

// Service defines the interface for the loan ledger. The ledger is owned by
// the circulation engine; collaborators read loans through the query facade.
type Service interface {
	// InsertLoan appends a new loan row. A non-empty idempotency key that
	// repeats a committed one fails with ErrDuplicateIdempotencyKey.
	InsertLoan(ctx context.Context, loan *Loan) error

	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)

	// LoanByIdempotencyKey returns the committed loan for a key, or
	// ErrLoanNotFound when the key has never been used.
	LoanByIdempotencyKey(ctx context.Context, key string) (*Loan, error)

	// CloseLoan transitions a loan from open to closed exactly once. The
	// check and the write are a single guarded statement, which is what
	// makes a second Return a detectable no-op instead of a double close.
	CloseLoan(ctx context.Context, id uuid.UUID, returnedOn time.Time) error

	// ReopenLoan reverts a close. It exists solely as the engine's
	// compensation path for a return whose availability increment could
	// not be committed.
	ReopenLoan(ctx context.Context, id uuid.UUID) error

	HasOpenLoansForItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	HasOpenLoansForMember(ctx context.Context, memberID uuid.UUID) (bool, error)
}
