// internal/member/service.go
package member

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrMemberNotFound is returned when no member exists for the given id.
	ErrMemberNotFound = errors.New("member not found")

	// ErrHasOpenLoans is returned when a member cannot be removed because
	// they still hold open loans.
	ErrHasOpenLoans = errors.New("member has open loans")
)

// OpenLoanChecker reports whether a member still holds any open loan.
// The loan ledger satisfies this.
type OpenLoanChecker interface {
	HasOpenLoansForMember(ctx context.Context, memberID uuid.UUID) (bool, error)
}

// Service defines the interface for the member directory.
type Service interface {
	AddMember(ctx context.Context, in NewMember) (*Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)
	UpdateMember(ctx context.Context, id uuid.UUID, upd MemberUpdate) (*Member, error)
	RemoveMember(ctx context.Context, id uuid.UUID) error
	ListMembers(ctx context.Context) ([]*Member, error)
}
