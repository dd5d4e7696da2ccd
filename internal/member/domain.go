// internal/member/domain.go
package member

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a registered borrower. Loans reference members by id
// only; nothing in circulation depends on the descriptive fields.
type Member struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Group        string    `json:"group" db:"group_name"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Email        string    `json:"email,omitempty" db:"email"`
	RegisteredOn time.Time `json:"registered_on" db:"registered_on"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Member lifecycle states.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// NewMember carries the fields supplied at registration.
type NewMember struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// MemberUpdate carries the editable descriptive fields.
type MemberUpdate struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}
