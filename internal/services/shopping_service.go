package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ShoppingService handles the user's shopping list
type ShoppingService struct {
	items repository.ShoppingItemRepository
	log   *zap.Logger
}

// NewShoppingService creates a new ShoppingService
func NewShoppingService(items repository.ShoppingItemRepository, log *zap.Logger) *ShoppingService {
	return &ShoppingService{
		items: items,
		log:   logging.OrNop(log),
	}
}

// CreateShoppingItemInput represents input for creating a shopping item
type CreateShoppingItemInput struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Quantity  int    `json:"quantity,omitempty"`
	Note      string `json:"note,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Category  string `json:"category,omitempty"`
}

// UpdateShoppingItemInput represents a partial shopping item update
type UpdateShoppingItemInput struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Quantity  *int    `json:"quantity,omitempty"`
	Note      *string `json:"note,omitempty"`
	Unit      *string `json:"unit,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// Apply copies the set fields onto item.
func (in UpdateShoppingItemInput) Apply(item *models.ShoppingItem) {
	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Completed != nil {
		item.Completed = *in.Completed
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.Note != nil {
		item.Note = *in.Note
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
	}
	if in.Category != nil {
		item.Category = *in.Category
	}
}

// ListItems returns the user's shopping items, most recent first
func (s *ShoppingService) ListItems(ctx context.Context, userID string) ([]models.ShoppingItem, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	items, err := s.items.ListByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list shopping items", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	return items, nil
}

// GetItem returns one of the user's shopping items
func (s *ShoppingService) GetItem(ctx context.Context, userID, id string) (*models.ShoppingItem, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find shopping item: %w", err)
	}
	if item.UserID != userID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// CreateItem adds an item to the user's shopping list
func (s *ShoppingService) CreateItem(ctx context.Context, userID string, input CreateShoppingItemInput) (*models.ShoppingItem, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item := &models.ShoppingItem{
		UserID:    userID,
		Title:     title,
		Completed: input.Completed,
		Quantity:  quantity,
		Note:      input.Note,
		Unit:      input.Unit,
		Category:  input.Category,
	}

	if err := s.items.Create(ctx, item); err != nil {
		s.log.Error("failed to create shopping item", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create shopping item: %w", err)
	}

	return item, nil
}

// UpdateItem applies a partial update to a shopping item
func (s *ShoppingService) UpdateItem(ctx context.Context, userID, id string, input UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Quantity != nil && *input.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	input.Apply(item)

	if err := s.items.Update(ctx, item); err != nil {
		s.log.Error("failed to update shopping item", zap.String("item_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update shopping item: %w", err)
	}

	return item, nil
}

// ToggleCompleted flips an item between active and completed
func (s *ShoppingService) ToggleCompleted(ctx context.Context, userID, id string) (*models.ShoppingItem, error) {
	item, err := s.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	completed := !item.Completed
	return s.UpdateItem(ctx, userID, id, UpdateShoppingItemInput{Completed: &completed})
}

// DeleteItem removes an item from the shopping list
func (s *ShoppingService) DeleteItem(ctx context.Context, userID, id string) error {
	if _, err := s.GetItem(ctx, userID, id); err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		s.log.Error("failed to delete shopping item", zap.String("item_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete shopping item: %w", err)
	}

	return nil
}

// ClearCompleted removes every completed item and reports how many were removed
func (s *ShoppingService) ClearCompleted(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}

	removed, err := s.items.DeleteCompleted(ctx, userID)
	if err != nil {
		s.log.Error("failed to clear completed items", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to clear completed items: %w", err)
	}
	return removed, nil
}
