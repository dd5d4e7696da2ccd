// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// service implements the Service interface on Postgres.
type service struct {
	db     *sqlx.DB
	loans  OpenLoanChecker
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, loans OpenLoanChecker) Service {
	return &service{
		db:     db,
		loans:  loans,
		tracer: otel.Tracer("pustaka/catalog"),
	}
}

// AddItem creates a new item in the catalog with all copies available.
func (s *service) AddItem(ctx context.Context, in NewItem) (*Item, error) {
	if in.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}
	if in.Title == "" || in.Author == "" {
		return nil, fmt.Errorf("title and author are required")
	}

	item := &Item{
		ID:              uuid.New(),
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       in.Publisher,
		Year:            in.Year,
		Category:        in.Category,
		ShelfCode:       in.ShelfCode,
		Description:     in.Description,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		Status:          StatusActive,
		Version:         1,
	}

	query := `
		INSERT INTO items (id, title, author, publisher, year, category, shelf_code, description,
		                   total_copies, available_copies, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		item.ID, item.Title, item.Author, item.Publisher, item.Year, item.Category,
		item.ShelfCode, item.Description, item.TotalCopies, item.AvailableCopies,
		item.Status, item.Version,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	return item, nil
}

// GetItem retrieves an item from the catalog by its ID.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	item := &Item{}
	query := `
		SELECT id, title, author, publisher, year, category, shelf_code, description,
		       total_copies, available_copies, status, version, created_at, updated_at
		FROM items
		WHERE id = $1
	`
	if err := s.db.GetContext(ctx, item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return item, nil
}

// UpdateItem updates the collaborator-owned fields of an item. A change to
// the total copy count is applied as a delta against the available count in
// a single statement, so copies lent out stay accounted for and the
// available count never drops below zero.
func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, upd ItemUpdate) (*Item, error) {
	if upd.TotalCopies < 1 {
		return nil, ErrInvalidCopies
	}

	query := `
		UPDATE items
		SET title = $2, author = $3, publisher = $4, year = $5, category = $6,
		    shelf_code = $7, description = $8,
		    available_copies = available_copies + ($9 - total_copies),
		    total_copies = $9,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1
		  AND status = 'active'
		  AND available_copies + ($9 - total_copies) >= 0
	`
	res, err := s.db.ExecContext(ctx, query,
		id, upd.Title, upd.Author, upd.Publisher, upd.Year, upd.Category,
		upd.ShelfCode, upd.Description, upd.TotalCopies,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update item: rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetItem(ctx, id); err != nil {
			return nil, err
		}
		// The item exists, so the new total would not cover the open loans.
		return nil, ErrInvalidCopies
	}

	return s.GetItem(ctx, id)
}

// RemoveItem retires an item from the catalog. Retirement is refused while
// any open loan still references the item.
func (s *service) RemoveItem(ctx context.Context, id uuid.UUID) error {
	open, err := s.loans.HasOpenLoansForItem(ctx, id)
	if err != nil {
		return fmt.Errorf("check open loans: %w", err)
	}
	if open {
		return ErrHasOpenLoans
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET status = 'retired', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return fmt.Errorf("retire item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retire item: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}

	return nil
}

// ListItems returns the active catalog ordered by title.
func (s *service) ListItems(ctx context.Context) ([]*Item, error) {
	items := []*Item{}
	query := `
		SELECT id, title, author, publisher, year, category, shelf_code, description,
		       total_copies, available_copies, status, version, created_at, updated_at
		FROM items
		WHERE status = 'active'
		ORDER BY title
	`
	if err := s.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// CompareAndSetAvailability atomically writes a new available count, but only
// if the stored count still equals the expected value. The guarded update is
// the optimistic-concurrency primitive every borrow and return is built on.
func (s *service) CompareAndSetAvailability(ctx context.Context, id uuid.UUID, expected, newValue int) error {
	ctx, span := s.tracer.Start(ctx, "catalog.cas_availability",
		trace.WithAttributes(
			attribute.String("item.id", id.String()),
			attribute.Int("availability.expected", expected),
			attribute.Int("availability.new", newValue),
		),
	)
	defer span.End()

	if newValue < 0 {
		return ErrInvalidCopies
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET available_copies = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND available_copies = $2
	`, id, expected, newValue)
	if err != nil {
		return fmt.Errorf("cas availability: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cas availability: rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("cas availability: existence check: %w", err)
		}
		if !exists {
			return ErrItemNotFound
		}
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return ErrAvailabilityConflict
	}

	return nil
}
