// internal/ledger/implementation.go
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code raised when the partial unique
// index on idempotency_key rejects a duplicate key.
const uniqueViolation = "23505"

// service implements the Service interface on Postgres.
type service struct {
	db *sqlx.DB
}

// NewService creates a new loan ledger instance.
func NewService(db *sqlx.DB) Service {
	return &service{db: db}
}

// InsertLoan appends a new loan row.
func (s *service) InsertLoan(ctx context.Context, loan *Loan) error {
	key := sql.NullString{String: loan.IdempotencyKey, Valid: loan.IdempotencyKey != ""}

	query := `
		INSERT INTO loans (id, item_id, member_id, borrowed_on, due_on, returned_on, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		loan.ID, loan.ItemID, loan.MemberID, loan.BorrowedOn, loan.DueOn,
		loan.ReturnedOn, loan.Status, key,
	).Scan(&loan.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert loan: %w", err)
	}

	return nil
}

// GetLoan retrieves a loan by id.
func (s *service) GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error) {
	loan, err := s.getLoan(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// LoanByIdempotencyKey retrieves the loan committed under a key.
func (s *service) LoanByIdempotencyKey(ctx context.Context, key string) (*Loan, error) {
	return s.getLoan(ctx, `WHERE idempotency_key = $1`, key)
}

func (s *service) getLoan(ctx context.Context, where string, arg interface{}) (*Loan, error) {
	loan := &Loan{}
	var key sql.NullString

	query := `
		SELECT id, item_id, member_id, borrowed_on, due_on, returned_on, status, idempotency_key, created_at
		FROM loans ` + where
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&loan.ID,
		&loan.ItemID,
		&loan.MemberID,
		&loan.BorrowedOn,
		&loan.DueOn,
		&loan.ReturnedOn,
		&loan.Status,
		&key,
		&loan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	loan.IdempotencyKey = key.String

	return loan, nil
}

// CloseLoan transitions a loan from open to closed. The status guard in the
// WHERE clause makes the check-then-set atomic.
func (s *service) CloseLoan(ctx context.Context, id uuid.UUID, returnedOn time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE loans
		SET status = 'closed', returned_on = $2
		WHERE id = $1 AND status = 'open'
	`, id, returnedOn)
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close loan: rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetLoan(ctx, id); err != nil {
			return err
		}
		return ErrLoanAlreadyClosed
	}

	return nil
}

// ReopenLoan reverts a close. Compensation only.
func (s *service) ReopenLoan(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE loans
		SET status = 'open', returned_on = NULL
		WHERE id = $1 AND status = 'closed'
	`, id)
	if err != nil {
		return fmt.Errorf("reopen loan: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reopen loan: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrLoanNotFound
	}

	return nil
}

// HasOpenLoansForItem reports whether any open loan references the item.
func (s *service) HasOpenLoansForItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var open bool
	err := s.db.GetContext(ctx, &open,
		`SELECT EXISTS (SELECT 1 FROM loans WHERE item_id = $1 AND status = 'open')`, itemID)
	if err != nil {
		return false, fmt.Errorf("open loans for item: %w", err)
	}
	return open, nil
}

// HasOpenLoansForMember reports whether the member holds any open loan.
func (s *service) HasOpenLoansForMember(ctx context.Context, memberID uuid.UUID) (bool, error) {
	var open bool
	err := s.db.GetContext(ctx, &open,
		`SELECT EXISTS (SELECT 1 FROM loans WHERE member_id = $1 AND status = 'open')`, memberID)
	if err != nil {
		return false, fmt.Errorf("open loans for member: %w", err)
	}
	return open, nil
}
