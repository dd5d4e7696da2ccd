// internal/query/implementation.go
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/sony/gobreaker"
)

var dialect = goqu.Dialect("postgres")

// service implements the Service interface on Postgres. Every read passes
// through a circuit breaker: dashboard polling keeps hammering these
// endpoints and must back off instead of piling onto a degraded database.
type service struct {
	db      *sqlx.DB
	breaker *gobreaker.CircuitBreaker
}

// NewService creates a new query facade instance.
func NewService(db *sqlx.DB) Service {
	return &service{
		db: db,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "query-facade",
			Timeout: 10 * time.Second,
		}),
	}
}

func loanViewDataset() *goqu.SelectDataset {
	return dialect.From(goqu.T("loans").As("l")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.Ex{"i.id": goqu.I("l.item_id")})).
		Join(goqu.T("members").As("m"), goqu.On(goqu.Ex{"m.id": goqu.I("l.member_id")})).
		Select(
			goqu.I("l.id"),
			goqu.I("l.item_id"),
			goqu.I("l.member_id"),
			goqu.I("l.borrowed_on"),
			goqu.I("l.due_on"),
			goqu.I("l.returned_on"),
			goqu.I("l.status"),
			goqu.I("i.title").As("item_title"),
			goqu.I("i.author").As("item_author"),
			goqu.I("m.name").As("member_name"),
			goqu.I("m.group_name").As("member_group"),
		).
		Order(goqu.I("l.borrowed_on").Desc())
}

// ListOpenLoans returns every loan not yet returned, newest first.
func (s *service) ListOpenLoans(ctx context.Context) ([]*LoanView, error) {
	return s.selectLoans(ctx, loanViewDataset().Where(goqu.I("l.status").Eq("open")))
}

// ListLoans returns the full circulation history, newest first.
func (s *service) ListLoans(ctx context.Context) ([]*LoanView, error) {
	return s.selectLoans(ctx, loanViewDataset())
}

func (s *service) selectLoans(ctx context.Context, ds *goqu.SelectDataset) ([]*LoanView, error) {
	sqlStr, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		loans := []*LoanView{}
		if err := s.db.SelectContext(ctx, &loans, sqlStr, args...); err != nil {
			return nil, fmt.Errorf("select loans: %w", err)
		}
		return loans, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]*LoanView), nil
}

// ListAvailableItems returns active items with at least minCopies copies on
// the shelf. A minCopies below one means the caller wants anything
// borrowable, so it is clamped to one.
func (s *service) ListAvailableItems(ctx context.Context, minCopies int) ([]*AvailableItem, error) {
	if minCopies < 1 {
		minCopies = 1
	}

	sqlStr, args, err := dialect.From("items").
		Select("id", "title", "author", "total_copies", "available_copies").
		Where(
			goqu.C("status").Eq("active"),
			goqu.C("available_copies").Gte(minCopies),
		).
		Order(goqu.C("title").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build available items query: %w", err)
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		items := []*AvailableItem{}
		if err := s.db.SelectContext(ctx, &items, sqlStr, args...); err != nil {
			return nil, fmt.Errorf("select available items: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]*AvailableItem), nil
}

// CountOpenLoans returns the number of loans currently out.
func (s *service) CountOpenLoans(ctx context.Context) (int, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM loans WHERE status = 'open'`)
}

// SumAvailableCopies returns the total number of copies on the shelf across
// the active catalog.
func (s *service) SumAvailableCopies(ctx context.Context) (int, error) {
	return s.countQuery(ctx, `SELECT COALESCE(SUM(available_copies), 0) FROM items WHERE status = 'active'`)
}

func (s *service) countQuery(ctx context.Context, sqlStr string) (int, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		var n int
		if err := s.db.GetContext(ctx, &n, sqlStr); err != nil {
			return 0, fmt.Errorf("count query: %w", err)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}

	return result.(int), nil
}

// Stats returns the dashboard summary in one round trip.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM items   WHERE status = 'active')                  AS total_items,
			(SELECT COUNT(*) FROM members WHERE status = 'active')                  AS total_members,
			(SELECT COUNT(*) FROM loans   WHERE status = 'open')                    AS open_loans,
			(SELECT COALESCE(SUM(available_copies), 0) FROM items
			  WHERE status = 'active')                                              AS available_copies
	`

	result, err := s.breaker.Execute(func() (interface{}, error) {
		stats := &Stats{}
		if err := s.db.GetContext(ctx, stats, query); err != nil {
			return nil, fmt.Errorf("select stats: %w", err)
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Stats), nil
}
