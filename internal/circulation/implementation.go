// internal/circulation/implementation.go
package circulation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pustaka/internal/catalog"
	"pustaka/internal/ledger"
)

// service implements the Service interface.
type service struct {
	items   ItemStore
	members MemberDirectory
	loans   LoanLedger
	retry   retryConfig
	now     func() time.Time
	tracer  trace.Tracer
}

// NewService creates a new circulation engine instance.
func NewService(items ItemStore, members MemberDirectory, loans LoanLedger, opts ...Option) (Service, error) {
	s := &service{
		items:   items,
		members: members,
		loans:   loans,
		retry:   defaultRetryConfig(),
		now:     time.Now,
		tracer:  otel.Tracer("pustaka/circulation"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Borrow lends one copy of an item to a member. The availability check and
// the decrement are a single compare-and-set against the catalog, so two
// borrows racing for the last copy cannot both succeed: the loser's write
// conflicts, rereads, observes zero copies and fails with
// ErrNoCopiesAvailable.
func (s *service) Borrow(ctx context.Context, req BorrowRequest) (*ledger.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.borrow",
		trace.WithAttributes(
			attribute.String("item.id", req.ItemID.String()),
			attribute.String("member.id", req.MemberID.String()),
		),
	)
	defer span.End()

	now := s.now()
	dueOn := req.DueOn
	if dueOn.IsZero() {
		dueOn = now.AddDate(0, 0, DefaultLoanDays)
	}
	if !startOfDay(dueOn).After(startOfDay(now)) {
		return nil, ErrInvalidDueDate
	}

	if _, err := s.members.GetMember(ctx, req.MemberID); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		_, err := s.loans.LoanByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return nil, ledger.ErrDuplicateIdempotencyKey
		}
		if !errors.Is(err, ledger.ErrLoanNotFound) {
			return nil, err
		}
	}

	var created *ledger.Loan
	err := retryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		item, err := s.items.GetItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if item.Status == catalog.StatusRetired {
			return catalog.ErrItemNotFound
		}
		if item.AvailableCopies <= 0 {
			return ErrNoCopiesAvailable
		}

		if err := s.items.CompareAndSetAvailability(ctx, item.ID, item.AvailableCopies, item.AvailableCopies-1); err != nil {
			return err
		}

		loan := &ledger.Loan{
			ID:             uuid.New(),
			ItemID:         req.ItemID,
			MemberID:       req.MemberID,
			BorrowedOn:     now,
			DueOn:          dueOn,
			Status:         ledger.StatusOpen,
			IdempotencyKey: req.IdempotencyKey,
		}
		if err := s.loans.InsertLoan(ctx, loan); err != nil {
			// The copy was already taken off the shelf; put it back before
			// surfacing the failure, so no copy is lost permanently.
			s.compensateAvailability(ctx, req.ItemID, +1)
			return err
		}

		created = loan
		return nil
	})
	if err != nil {
		span.SetAttributes(attribute.String("borrow.outcome", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.String("loan.id", created.ID.String()))
	return created, nil
}

// Return closes a loan and puts the copy back into availability. Closing is
// an atomic check-then-set in the ledger, so of two concurrent returns only
// one closes the loan; the other observes ErrLoanAlreadyClosed before any
// counter is touched, which rules out a double increment.
func (s *service) Return(ctx context.Context, loanID uuid.UUID) (*ledger.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.return",
		trace.WithAttributes(attribute.String("loan.id", loanID.String())),
	)
	defer span.End()

	loan, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Open() {
		return nil, ledger.ErrLoanAlreadyClosed
	}

	now := s.now()
	if err := s.loans.CloseLoan(ctx, loanID, now); err != nil {
		return nil, err
	}

	err = retryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		item, err := s.items.GetItem(ctx, loan.ItemID)
		if err != nil {
			return err
		}
		if item.AvailableCopies >= item.TotalCopies {
			// Cannot happen while the closed loan is still unaccounted;
			// bail out rather than push availability above total.
			return catalog.ErrInvalidCopies
		}
		return s.items.CompareAndSetAvailability(ctx, item.ID, item.AvailableCopies, item.AvailableCopies+1)
	})
	if err != nil {
		// The loan was closed but the copy never made it back to the
		// shelf. Reopen the loan so the books still balance.
		if rerr := s.loans.ReopenLoan(context.WithoutCancel(ctx), loanID); rerr != nil {
			log.Printf("circulation: failed to reopen loan %s after increment failure: %v", loanID, rerr)
		}
		span.SetAttributes(attribute.String("return.outcome", err.Error()))
		return nil, err
	}

	loan.Status = ledger.StatusClosed
	loan.ReturnedOn = &now
	return loan, nil
}

// compensateAvailability undoes a committed availability change when a later
// step of the same operation fails. Runs detached from the caller's
// cancellation: once the counter has moved, putting it back must not be
// abandoned mid-way.
func (s *service) compensateAvailability(ctx context.Context, itemID uuid.UUID, delta int) {
	ctx = context.WithoutCancel(ctx)
	err := retryOnConflict(ctx, s.retry, func(ctx context.Context) error {
		item, err := s.items.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		return s.items.CompareAndSetAvailability(ctx, itemID, item.AvailableCopies, item.AvailableCopies+delta)
	})
	if err != nil {
		log.Printf("circulation: failed to compensate availability for item %s by %+d: %v", itemID, delta, err)
	}
}

// startOfDay truncates a timestamp to its calendar date in UTC. Due-date
// validation works on dates, not instants.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
