package dto

import "github.com/yukikurage/oppuss/internal/models"

// ShoppingListResponse splits the shopping list into its two views
type ShoppingListResponse struct {
	Active    []models.ShoppingItem `json:"active"`
	Completed []models.ShoppingItem `json:"completed"`
}
