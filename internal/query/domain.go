// internal/query/domain.go
package query

import (
	"time"

	"github.com/google/uuid"
)

// LoanView is a loan row joined with the item and member names the list
// screens display.
type LoanView struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ItemID      uuid.UUID  `json:"item_id" db:"item_id"`
	MemberID    uuid.UUID  `json:"member_id" db:"member_id"`
	BorrowedOn  time.Time  `json:"borrowed_on" db:"borrowed_on"`
	DueOn       time.Time  `json:"due_on" db:"due_on"`
	ReturnedOn  *time.Time `json:"returned_on,omitempty" db:"returned_on"`
	Status      string     `json:"status" db:"status"`
	ItemTitle   string     `json:"item_title" db:"item_title"`
	ItemAuthor  string     `json:"item_author" db:"item_author"`
	MemberName  string     `json:"member_name" db:"member_name"`
	MemberGroup string     `json:"member_group" db:"member_group"`
}

// AvailableItem is the slice of an item the borrow form needs.
type AvailableItem struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	TotalCopies     int       `json:"total_copies" db:"total_copies"`
	AvailableCopies int       `json:"available_copies" db:"available_copies"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalItems      int `json:"total_items" db:"total_items"`
	TotalMembers    int `json:"total_members" db:"total_members"`
	OpenLoans       int `json:"open_loans" db:"open_loans"`
	AvailableCopies int `json:"available_copies" db:"available_copies"`
}
