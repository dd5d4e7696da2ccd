// internal/ledger/domain.go
package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status of a loan. A loan is open from borrow until return, then closed
// exactly once. Loan rows are never deleted; the ledger is the historical
// record of circulation.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Loan records one copy of an item held by one member between a borrow
// date and a return date.
type Loan struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ItemID         uuid.UUID  `json:"item_id" db:"item_id"`
	MemberID       uuid.UUID  `json:"member_id" db:"member_id"`
	BorrowedOn     time.Time  `json:"borrowed_on" db:"borrowed_on"`
	DueOn          time.Time  `json:"due_on" db:"due_on"`
	ReturnedOn     *time.Time `json:"returned_on,omitempty" db:"returned_on"`
	Status         Status     `json:"status" db:"status"`
	IdempotencyKey string     `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Open reports whether the loan has not been returned yet.
func (l *Loan) Open() bool {
	return l.Status == StatusOpen
}
