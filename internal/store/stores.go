package store

import (
	"context"
	"errors"

	"github.com/yukikurage/oppuss/internal/aggregate"
	"github.com/yukikurage/oppuss/internal/models"
)

// Stores is the set of stores owned by one application instance.
type Stores struct {
	Houses   *HouseStore
	Rooms    *RoomStore
	Shopping *ShoppingStore

	budget *aggregate.Derived[models.Room, aggregate.Summary]
}

// New builds the stores over the given gateways. All stores share user and opts.
func New(houses HouseGateway, rooms RoomGateway, shopping ShoppingGateway, user UserSource, opts ...Option) *Stores {
	s := &Stores{
		Houses:   NewHouseStore(houses, user, opts...),
		Rooms:    NewRoomStore(rooms, user, opts...),
		Shopping: NewShoppingStore(shopping, user, opts...),
	}
	s.budget = aggregate.NewDerived[models.Room](s.Rooms, aggregate.Summarize)
	return s
}

// LoadAll loads every store. Each store is loaded even if an earlier one
// fails; the failures are joined.
func (s *Stores) LoadAll(ctx context.Context) error {
	return errors.Join(
		s.Houses.Load(ctx),
		s.Rooms.Load(ctx),
		s.Shopping.Load(ctx),
	)
}

// DeleteHouse removes the house and, locally, its rooms. Both come back if
// the gateway rejects the delete.
func (s *Stores) DeleteHouse(ctx context.Context, id string) error {
	detached := s.Rooms.detachHouse(id)
	if err := s.Houses.Delete(ctx, id); err != nil {
		s.Rooms.restore(detached)
		return err
	}
	return nil
}

// Budget is the budget summary across all rooms, recomputed only when the
// room store changes.
func (s *Stores) Budget() aggregate.Summary {
	return s.budget.Get()
}

// HouseBudgets summarizes each house in the house store's order.
func (s *Stores) HouseBudgets() []aggregate.HouseSummary {
	return aggregate.ByHouse(s.Houses.Items(), s.Rooms.Items())
}

func (s *Stores) ActiveItems() []models.ShoppingItem {
	return aggregate.ActiveItems(s.Shopping.Items())
}

func (s *Stores) CompletedItems() []models.ShoppingItem {
	return aggregate.CompletedItems(s.Shopping.Items())
}
