// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrItemNotFound is returned when no item exists for the given id.
	ErrItemNotFound = errors.New("item not found")

	// ErrAvailabilityConflict is returned by CompareAndSetAvailability when
	// the stored count no longer matches the expected value.
	ErrAvailabilityConflict = errors.New("availability conflict: stored count did not match expected value")

	// ErrHasOpenLoans is returned when an item cannot be retired or shrunk
	// because open loans still reference it.
	ErrHasOpenLoans = errors.New("item has open loans")

	// ErrInvalidCopies is returned when a copy count would leave the item
	// with fewer copies than are currently lent out, or below one in total.
	ErrInvalidCopies = errors.New("invalid copy count")
)

// OpenLoanChecker reports whether any open loan still references an item.
// The loan ledger satisfies this.
type OpenLoanChecker interface {
	HasOpenLoansForItem(ctx context.Context, itemID uuid.UUID) (bool, error)
}

// Service defines the interface for the catalog store.
//
// CompareAndSetAvailability is the single primitive through which available
// copies change. Collaborator-facing operations never touch that column
// directly.
type Service interface {
	AddItem(ctx context.Context, in NewItem) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, upd ItemUpdate) (*Item, error)
	RemoveItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context) ([]*Item, error)
	CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, newValue int) error
}
