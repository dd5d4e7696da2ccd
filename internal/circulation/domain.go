// internal/circulation/domain.go
package circulation

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLoanDays is the loan period applied when a borrow request carries
// no due date.
const DefaultLoanDays = 7

// BorrowRequest describes one borrow operation.
//
// IdempotencyKey is optional. When a caller supplies one, a retry that
// repeats a key already committed is rejected instead of creating a second
// loan. Without a key every call intentionally creates a new loan.
type BorrowRequest struct {
	ItemID         uuid.UUID `json:"item_id"`
	MemberID       uuid.UUID `json:"member_id"`
	DueOn          time.Time `json:"due_on,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
}
