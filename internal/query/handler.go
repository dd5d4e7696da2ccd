// internal/query/handler.go
package query

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the read-only projection endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/loans", h.handleListLoans)
	r.Get("/loans/open", h.handleListOpenLoans)
	r.Get("/items/available", h.handleListAvailableItems)
	r.Get("/stats", h.handleStats)
}

func (h *Handler) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loans)
}

func (h *Handler) handleListOpenLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListOpenLoans(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loans)
}

func (h *Handler) handleListAvailableItems(w http.ResponseWriter, r *http.Request) {
	minCopies := 1
	if raw := r.URL.Query().Get("min_copies"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid min_copies", http.StatusBadRequest)
			return
		}
		minCopies = n
	}

	items, err := h.service.ListAvailableItems(r.Context(), minCopies)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
