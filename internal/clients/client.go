// internal/clients/client.go
package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"pustaka/internal/catalog"
	"pustaka/internal/circulation"
	"pustaka/internal/ledger"
	"pustaka/internal/member"
	"pustaka/internal/query"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is the non-2xx response of the HTTP API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// Client is a typed HTTP client for the circulation API. The zero value is
// not usable; construct one with New.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    http.DefaultClient,
	}
}

// NewWithHTTPClient is for callers that need their own transport, such as
// tests running against an httptest server.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.http = hc
	return c
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body, out interface{}) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) AddItem(ctx context.Context, in catalog.NewItem) (*catalog.Item, error) {
	item := &catalog.Item{}
	if err := c.do(ctx, http.MethodPost, "/items", nil, in, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) GetItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	item := &catalog.Item{}
	if err := c.do(ctx, http.MethodGet, "/items/"+id.String(), nil, nil, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, upd catalog.ItemUpdate) (*catalog.Item, error) {
	item := &catalog.Item{}
	if err := c.do(ctx, http.MethodPut, "/items/"+id.String(), nil, upd, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (c *Client) RemoveItem(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/items/"+id.String(), nil, nil, nil)
}

func (c *Client) ListItems(ctx context.Context) ([]*catalog.Item, error) {
	items := []*catalog.Item{}
	if err := c.do(ctx, http.MethodGet, "/items", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddMember(ctx context.Context, in member.NewMember) (*member.Member, error) {
	m := &member.Member{}
	if err := c.do(ctx, http.MethodPost, "/members", nil, in, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) GetMember(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	m := &member.Member{}
	if err := c.do(ctx, http.MethodGet, "/members/"+id.String(), nil, nil, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) UpdateMember(ctx context.Context, id uuid.UUID, upd member.MemberUpdate) (*member.Member, error) {
	m := &member.Member{}
	if err := c.do(ctx, http.MethodPut, "/members/"+id.String(), nil, upd, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) RemoveMember(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/members/"+id.String(), nil, nil, nil)
}

// Borrow creates a loan. The request's idempotency key, if any, travels in
// the Idempotency-Key header.
func (c *Client) Borrow(ctx context.Context, req circulation.BorrowRequest) (*ledger.Loan, error) {
	var header http.Header
	if req.IdempotencyKey != "" {
		header = http.Header{"Idempotency-Key": []string{req.IdempotencyKey}}
	}

	loan := &ledger.Loan{}
	if err := c.do(ctx, http.MethodPost, "/loans", header, req, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (c *Client) Return(ctx context.Context, loanID uuid.UUID) (*ledger.Loan, error) {
	loan := &ledger.Loan{}
	if err := c.do(ctx, http.MethodPost, "/loans/"+loanID.String()+"/return", nil, nil, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (c *Client) ListOpenLoans(ctx context.Context) ([]*query.LoanView, error) {
	loans := []*query.LoanView{}
	if err := c.do(ctx, http.MethodGet, "/reports/loans/open", nil, nil, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *Client) ListAvailableItems(ctx context.Context, minCopies int) ([]*query.AvailableItem, error) {
	items := []*query.AvailableItem{}
	path := "/reports/items/available?min_copies=" + strconv.Itoa(minCopies)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Stats(ctx context.Context) (*query.Stats, error) {
	stats := &query.Stats{}
	if err := c.do(ctx, http.MethodGet, "/reports/stats", nil, nil, stats); err != nil {
		return nil, err
	}
	return stats, nil
}
