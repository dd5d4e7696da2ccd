// internal/circulation/invariant_test.go
package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"pgregory.net/rapid"

	"pustaka/internal/ledger"
)

// TestAvailabilityInvariantUnderRandomOps drives random borrow/return
// sequences against a single item and checks after every operation that
// the availability counter still balances against the open loans:
//
//	availableCopies + openLoans == totalCopies
//	0 <= availableCopies <= totalCopies
func TestAvailabilityInvariantUnderRandomOps(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		stores := newMemStores()
		total := rapid.IntRange(1, 5).Draw(rt, "totalCopies")
		itemID := stores.addItem(total)
		memberID := stores.addMember()

		svc, err := NewService(stores, stores, stores, WithBaseDelay(time.Microsecond))
		if err != nil {
			rt.Fatalf("new service: %v", err)
		}

		ctx := context.Background()
		due := time.Now().AddDate(0, 0, 7)
		var open []uuid.UUID

		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0: // borrow
				loan, err := svc.Borrow(ctx, BorrowRequest{ItemID: itemID, MemberID: memberID, DueOn: due})
				switch {
				case err == nil:
					open = append(open, loan.ID)
				case errors.Is(err, ErrNoCopiesAvailable):
					if len(open) != total {
						rt.Fatalf("no copies reported with %d of %d loans open", len(open), total)
					}
				default:
					rt.Fatalf("borrow: %v", err)
				}
			case 1: // return an open loan
				if len(open) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(open)-1).Draw(rt, "loanIdx")
				if _, err := svc.Return(ctx, open[idx]); err != nil {
					rt.Fatalf("return: %v", err)
				}
				open = append(open[:idx], open[idx+1:]...)
			case 2: // return something that is not an open loan
				_, err := svc.Return(ctx, uuid.New())
				if !errors.Is(err, ledger.ErrLoanNotFound) {
					rt.Fatalf("return of unknown loan: %v", err)
				}
			}

			available := stores.availability(itemID)
			if available < 0 || available > total {
				rt.Fatalf("availability %d out of range [0, %d]", available, total)
			}
			if got := stores.openLoanCount(itemID); available+got != total {
				rt.Fatalf("ledger out of balance: available %d + open %d != total %d", available, got, total)
			}
			if got := stores.openLoanCount(itemID); got != len(open) {
				rt.Fatalf("open loan count %d, want %d", got, len(open))
			}
		}
	})
}
