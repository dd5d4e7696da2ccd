// internal/member/implementation.go
package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// service implements the Service interface on Postgres.
type service struct {
	db    *sqlx.DB
	loans OpenLoanChecker
}

// NewService creates a new member directory instance.
func NewService(db *sqlx.DB, loans OpenLoanChecker) Service {
	return &service{db: db, loans: loans}
}

// AddMember registers a new member.
func (s *service) AddMember(ctx context.Context, in NewMember) (*Member, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	m := &Member{
		ID:     uuid.New(),
		Name:   in.Name,
		Group:  in.Group,
		Phone:  in.Phone,
		Email:  in.Email,
		Status: StatusActive,
	}

	query := `
		INSERT INTO members (id, name, group_name, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING registered_on, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Group, m.Phone, m.Email, m.Status,
	).Scan(&m.RegisteredOn, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	return m, nil
}

// GetMember retrieves a member by id.
func (s *service) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	m := &Member{}
	query := `
		SELECT id, name, group_name, phone, email, registered_on, status, created_at, updated_at
		FROM members
		WHERE id = $1
	`
	if err := s.db.GetContext(ctx, m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	return m, nil
}

// UpdateMember updates a member's descriptive fields.
func (s *service) UpdateMember(ctx context.Context, id uuid.UUID, upd MemberUpdate) (*Member, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET name = $2, group_name = $3, phone = $4, email = $5, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id, upd.Name, upd.Group, upd.Phone, upd.Email)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update member: rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrMemberNotFound
	}

	return s.GetMember(ctx, id)
}

// RemoveMember removes a member from the directory. Removal is refused while
// the member still holds open loans.
func (s *service) RemoveMember(ctx context.Context, id uuid.UUID) error {
	open, err := s.loans.HasOpenLoansForMember(ctx, id)
	if err != nil {
		return fmt.Errorf("check open loans: %w", err)
	}
	if open {
		return ErrHasOpenLoans
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET status = 'removed', updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove member: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrMemberNotFound
	}

	return nil
}

// ListMembers returns the active roster ordered by name.
func (s *service) ListMembers(ctx context.Context) ([]*Member, error) {
	members := []*Member{}
	query := `
		SELECT id, name, group_name, phone, email, registered_on, status, created_at, updated_at
		FROM members
		WHERE status = 'active'
		ORDER BY name
	`
	if err := s.db.SelectContext(ctx, &members, query); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return members, nil
}
