// internal/api/api_test.go
package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pustaka/internal/api"
	"pustaka/internal/catalog"
	"pustaka/internal/circulation"
	"pustaka/internal/clients"
	"pustaka/internal/db"
	"pustaka/internal/member"
)

func newTestServer(t *testing.T) *clients.Client {
	t.Helper()

	conn := db.NewTestDB(t)
	router, err := api.New(conn, 1000)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return clients.NewWithHTTPClient(srv.URL, srv.Client())
}

func apiStatus(t *testing.T, err error) int {
	t.Helper()

	var apiErr *clients.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.StatusCode
}

func TestBorrowReturnFlow(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	item, err := c.AddItem(ctx, catalog.NewItem{Title: "Sang Pemimpi", Author: "Andrea Hirata", TotalCopies: 2})
	require.NoError(t, err)

	m, err := c.AddMember(ctx, member.NewMember{Name: "Ikal", Group: "XI-A"})
	require.NoError(t, err)

	loan, err := c.Borrow(ctx, circulation.BorrowRequest{
		ItemID:         item.ID,
		MemberID:       m.ID,
		IdempotencyKey: "flow-1",
	})
	require.NoError(t, err)
	assert.True(t, loan.Open())

	got, err := c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)

	// A replayed request must not take a second copy.
	_, err = c.Borrow(ctx, circulation.BorrowRequest{ItemID: item.ID, MemberID: m.ID, IdempotencyKey: "flow-1"})
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))

	open, err := c.ListOpenLoans(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Sang Pemimpi", open[0].ItemTitle)
	assert.Equal(t, "Ikal", open[0].MemberName)

	returned, err := c.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.False(t, returned.Open())

	got, err = c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableCopies)

	_, err = c.Return(ctx, loan.ID)
	assert.Equal(t, http.StatusConflict, apiStatus(t, err))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalItems)
	assert.Equal(t, 1, stats.TotalMembers)
	assert.Equal(t, 0, stats.OpenLoans)
	assert.Equal(t, 2, stats.AvailableCopies)
}

func TestBorrowValidationOverHTTP(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	item, err := c.AddItem(ctx, catalog.NewItem{Title: "Sirkus Pohon", Author: "Andrea Hirata", TotalCopies: 1})
	require.NoError(t, err)
	m, err := c.AddMember(ctx, member.NewMember{Name: "Hob", Group: "X-A"})
	require.NoError(t, err)

	_, err = c.Borrow(ctx, circulation.BorrowRequest{
		ItemID:   item.ID,
		MemberID: m.ID,
		DueOn:    time.Now().AddDate(0, 0, -1),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, apiStatus(t, err))

	got, err := c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestConcurrentBorrowsOverHTTP(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	item, err := c.AddItem(ctx, catalog.NewItem{Title: "Orang-Orang Biasa", Author: "Andrea Hirata", TotalCopies: 1})
	require.NoError(t, err)
	m, err := c.AddMember(ctx, member.NewMember{Name: "Salud", Group: "X-B"})
	require.NoError(t, err)

	const borrowers = 4
	errs := make([]error, borrowers)

	var wg sync.WaitGroup
	for i := 0; i < borrowers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Borrow(ctx, circulation.BorrowRequest{ItemID: item.ID, MemberID: m.ID})
		}(i)
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.Equal(t, http.StatusConflict, apiStatus(t, err))
		conflicted++
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, borrowers-1, conflicted)

	got, err := c.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)

	open, err := c.ListOpenLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}
