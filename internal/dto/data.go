package dto

import (
	"time"

	"github.com/yukikurage/oppuss/internal/models"
)

// ExportDocument is the versioned backup format.
//
// Version 1 carried rooms only, version 2 added houses and version 3 added
// the shopping list.
type ExportDocument struct {
	Version   int        `json:"version"`
	Timestamp time.Time  `json:"timestamp"`
	UserID    string     `json:"userId,omitempty"`
	Data      ExportData `json:"data"`
}

// ExportData holds the exported collections
type ExportData struct {
	Houses        []models.House        `json:"houses"`
	Rooms         []models.Room         `json:"rooms"`
	ShoppingItems []models.ShoppingItem `json:"shoppingItems"`
}

// ImportResult reports the outcome of an import or clear. Validation problems
// are carried here instead of being returned as errors.
type ImportResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Houses        int    `json:"houses,omitempty"`
	Rooms         int    `json:"rooms,omitempty"`
	ShoppingItems int    `json:"shoppingItems,omitempty"`
}

// Failed builds an unsuccessful ImportResult
func Failed(message string) ImportResult {
	return ImportResult{Success: false, Message: message}
}
