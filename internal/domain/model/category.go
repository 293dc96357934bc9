package model

import (
	"slices"
	"time"
)

// Event is a scoring rule attached to a category, e.g. {"VICTORY", "+", 30}.
type Event struct {
	Name      string  `json:"name"`
	Operation string  `json:"operation"`
	Value     float64 `json:"value"`
}

// Category is a skill tier. Name is the category key.
type Category struct {
	Name        string    `json:"category"`
	Description string    `json:"description"`
	Events      []Event   `json:"events"`
	Players     []string  `json:"players"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasPlayer reports whether playerID is a member of the category.
func (c Category) HasPlayer(playerID string) bool {
	return slices.Contains(c.Players, playerID)
}
