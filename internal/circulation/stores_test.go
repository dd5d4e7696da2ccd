// internal/circulation/stores_test.go
package circulation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pustaka/internal/catalog"
	"pustaka/internal/ledger"
	"pustaka/internal/member"
)

// memStores is an in-memory implementation of the three store contracts
// with real compare-and-set semantics, so the engine's concurrency
// behavior can be exercised without a database.
type memStores struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*catalog.Item
	members map[uuid.UUID]*member.Member
	loans   map[uuid.UUID]*ledger.Loan
	byKey   map[string]uuid.UUID

	// failCAS forces the next n compare-and-sets to conflict.
	failCAS int
	// failInsert makes InsertLoan fail with this error.
	failInsert error
}

func newMemStores() *memStores {
	return &memStores{
		items:   map[uuid.UUID]*catalog.Item{},
		members: map[uuid.UUID]*member.Member{},
		loans:   map[uuid.UUID]*ledger.Loan{},
		byKey:   map[string]uuid.UUID{},
	}
}

func (m *memStores) addItem(total int) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.items[id] = &catalog.Item{
		ID:              id,
		Title:           "Pride and Prejudice",
		Author:          "Jane Austen",
		TotalCopies:     total,
		AvailableCopies: total,
		Status:          catalog.StatusActive,
		Version:         1,
	}
	return id
}

func (m *memStores) addMember() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.members[id] = &member.Member{ID: id, Name: "Siti", Group: "XII-A", Status: member.StatusActive}
	return id
}

func (m *memStores) availability(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].AvailableCopies
}

func (m *memStores) openLoanCount(itemID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, l := range m.loans {
		if l.ItemID == itemID && l.Status == ledger.StatusOpen {
			n++
		}
	}
	return n
}

func (m *memStores) GetItem(_ context.Context, id uuid.UUID) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memStores) CompareAndSetAvailability(_ context.Context, id uuid.UUID, expected, newValue int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCAS > 0 {
		m.failCAS--
		return catalog.ErrAvailabilityConflict
	}

	item, ok := m.items[id]
	if !ok {
		return catalog.ErrItemNotFound
	}
	if item.AvailableCopies != expected {
		return catalog.ErrAvailabilityConflict
	}
	item.AvailableCopies = newValue
	item.Version++
	return nil
}

func (m *memStores) GetMember(_ context.Context, id uuid.UUID) (*member.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mb, ok := m.members[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	copied := *mb
	return &copied, nil
}

func (m *memStores) InsertLoan(_ context.Context, loan *ledger.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInsert != nil {
		return m.failInsert
	}
	if loan.IdempotencyKey != "" {
		if _, used := m.byKey[loan.IdempotencyKey]; used {
			return ledger.ErrDuplicateIdempotencyKey
		}
		m.byKey[loan.IdempotencyKey] = loan.ID
	}

	copied := *loan
	m.loans[loan.ID] = &copied
	return nil
}

func (m *memStores) GetLoan(_ context.Context, id uuid.UUID) (*ledger.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan, ok := m.loans[id]
	if !ok {
		return nil, ledger.ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (m *memStores) LoanByIdempotencyKey(_ context.Context, key string) (*ledger.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byKey[key]
	if !ok {
		return nil, ledger.ErrLoanNotFound
	}
	copied := *m.loans[id]
	return &copied, nil
}

func (m *memStores) CloseLoan(_ context.Context, id uuid.UUID, returnedOn time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan, ok := m.loans[id]
	if !ok {
		return ledger.ErrLoanNotFound
	}
	if loan.Status != ledger.StatusOpen {
		return ledger.ErrLoanAlreadyClosed
	}
	on := returnedOn
	loan.Status = ledger.StatusClosed
	loan.ReturnedOn = &on
	return nil
}

func (m *memStores) ReopenLoan(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan, ok := m.loans[id]
	if !ok || loan.Status != ledger.StatusClosed {
		return ledger.ErrLoanNotFound
	}
	loan.Status = ledger.StatusOpen
	loan.ReturnedOn = nil
	return nil
}
