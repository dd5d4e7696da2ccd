// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"golang.org/x/time/rate"

	"pustaka/internal/catalog"
	"pustaka/internal/circulation"
	"pustaka/internal/ledger"
	"pustaka/internal/member"
	"pustaka/internal/middleware"
	"pustaka/internal/query"
)

// New wires the services onto a router. All mutating routes share one rate
// limit budget; the read-only reports are left unmetered because the query
// facade carries its own circuit breaker.
func New(conn *sqlx.DB, requestsPerSecond int) (chi.Router, error) {
	loans := ledger.NewService(conn)
	items := catalog.NewService(conn, loans)
	members := member.NewService(conn, loans)

	engine, err := circulation.NewService(items, members, loans)
	if err != nil {
		return nil, err
	}

	facade := query.NewService(conn)

	catalogHandler := catalog.NewHandler(items)
	memberHandler := member.NewHandler(members)
	circulationHandler := circulation.NewHandler(engine)
	queryHandler := query.NewHandler(facade)

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), 2*requestsPerSecond)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimit(limiter)).Route("/items", catalogHandler.Routes)
		r.With(middleware.RateLimit(limiter)).Route("/members", memberHandler.Routes)
		r.With(middleware.RateLimit(limiter)).Route("/loans", circulationHandler.Routes)
		r.Route("/reports", queryHandler.Routes)
	})

	return r, nil
}
