package store

import (
	"context"
	"strings"
	"time"

	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
	"go.uber.org/zap"
)

// ShoppingStore mirrors the signed-in user's shopping list, most recent first.
type ShoppingStore struct {
	*collection[models.ShoppingItem]
	base
	gateway ShoppingGateway
}

func NewShoppingStore(gateway ShoppingGateway, user UserSource, opts ...Option) *ShoppingStore {
	return &ShoppingStore{
		collection: newCollection(
			func(it models.ShoppingItem) string { return it.ID },
			func(it models.ShoppingItem) models.ShoppingItem { return it },
		),
		base:    newBase("shopping", user, opts),
		gateway: gateway,
	}
}

func (s *ShoppingStore) Load(ctx context.Context) error {
	return load(ctx, s.collection, &s.base, s.gateway.ListItems)
}

func (s *ShoppingStore) Add(ctx context.Context, input services.CreateShoppingItemInput) (*models.ShoppingItem, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	now := time.Now().UTC()
	pending := models.ShoppingItem{
		ID:        tempID(),
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		Completed: input.Completed,
		Quantity:  quantity,
		Note:      input.Note,
		Unit:      input.Unit,
		Category:  input.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return addOptimistic(s.collection, &s.base, 0, pending, func() (*models.ShoppingItem, error) {
		return s.gateway.CreateItem(ctx, userID, input)
	})
}

func (s *ShoppingStore) Update(ctx context.Context, id string, input services.UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	return s.update(ctx, "update", id, input)
}

// Toggle flips the item's completed flag through the regular update path.
func (s *ShoppingStore) Toggle(ctx context.Context, id string) (*models.ShoppingItem, error) {
	item, ok := s.Get(id)
	if !ok {
		return nil, ErrNotLoaded
	}
	completed := !item.Completed
	return s.update(ctx, "toggle", id, services.UpdateShoppingItemInput{Completed: &completed})
}

func (s *ShoppingStore) update(ctx context.Context, op, id string, input services.UpdateShoppingItemInput) (*models.ShoppingItem, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	return updateOptimistic(s.collection, &s.base, op, id,
		func(it *models.ShoppingItem) {
			input.Apply(it)
			it.UpdatedAt = time.Now().UTC()
		},
		func() (*models.ShoppingItem, error) {
			return s.gateway.UpdateItem(ctx, userID, id, input)
		},
	)
}

func (s *ShoppingStore) Delete(ctx context.Context, id string) error {
	userID, err := s.currentUser()
	if err != nil {
		return err
	}

	return deleteOptimistic(s.collection, &s.base, id, func() error {
		return s.gateway.DeleteItem(ctx, userID, id)
	})
}

// ClearCompleted drops every completed item locally, then on the gateway.
// The removed items are put back if the gateway call fails.
func (s *ShoppingStore) ClearCompleted(ctx context.Context) (int64, error) {
	userID, err := s.currentUser()
	if err != nil {
		return 0, err
	}

	prior, _ := s.Snapshot()
	s.mutate(func(items []models.ShoppingItem) []models.ShoppingItem {
		kept := items[:0]
		for _, it := range items {
			if !it.Completed {
				kept = append(kept, it)
			}
		}
		return kept
	})
	m := newMutation(s.name, "clear_completed", s.observer, func() {
		s.mutate(func(items []models.ShoppingItem) []models.ShoppingItem {
			return mergeRestored(prior, items)
		})
	})

	removed, err := s.gateway.ClearCompleted(ctx, userID)
	if err != nil {
		s.log.Warn("clear completed rejected, rolling back", zap.Error(err))
		m.Rollback()
		return 0, err
	}

	m.Confirm()
	return removed, nil
}

// mergeRestored returns prior's order with the completed items of prior put
// back among current. Items added to current since prior was taken are kept
// at the front.
func mergeRestored(prior, current []models.ShoppingItem) []models.ShoppingItem {
	present := make(map[string]models.ShoppingItem, len(current))
	for _, it := range current {
		present[it.ID] = it
	}

	seen := make(map[string]bool, len(prior))
	out := make([]models.ShoppingItem, 0, len(current)+len(prior))
	for _, it := range prior {
		seen[it.ID] = true
		if cur, ok := present[it.ID]; ok {
			out = append(out, cur)
		} else if it.Completed {
			out = append(out, it)
		}
	}

	fresh := make([]models.ShoppingItem, 0)
	for _, it := range current {
		if !seen[it.ID] {
			fresh = append(fresh, it)
		}
	}
	return append(fresh, out...)
}
