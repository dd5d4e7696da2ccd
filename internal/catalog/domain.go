// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Item represents a lendable catalog entry.
type Item struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	Publisher       string    `json:"publisher,omitempty" db:"publisher"`
	Year            int       `json:"year,omitempty" db:"year"`
	Category        string    `json:"category,omitempty" db:"category"`
	ShelfCode       string    `json:"shelf_code,omitempty" db:"shelf_code"`
	Description     string    `json:"description,omitempty" db:"description"`
	TotalCopies     int       `json:"total_copies" db:"total_copies"`
	AvailableCopies int       `json:"available_copies" db:"available_copies"`
	Status          string    `json:"status" db:"status"`
	Version         int       `json:"version" db:"version"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Item lifecycle states.
const (
	StatusActive  = "active"
	StatusRetired = "retired"
)

// NewItem carries the fields a collaborator supplies when adding an item.
// A new item starts with every copy available.
type NewItem struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Year        int    `json:"year"`
	Category    string `json:"category"`
	ShelfCode   string `json:"shelf_code"`
	Description string `json:"description"`
	TotalCopies int    `json:"total_copies"`
}

// ItemUpdate carries the collaborator-owned fields of an item. Available
// copies are deliberately absent: only the circulation engine mutates them,
// and a change to TotalCopies is applied as an atomic delta that keeps
// open loans accounted for.
type ItemUpdate struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	Year        int    `json:"year"`
	Category    string `json:"category"`
	ShelfCode   string `json:"shelf_code"`
	Description string `json:"description"`
	TotalCopies int    `json:"total_copies"`
}
