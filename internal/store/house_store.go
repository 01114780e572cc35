package store

import (
	"context"
	"strings"
	"time"

	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

// HouseStore mirrors the signed-in user's houses, most recent first.
type HouseStore struct {
	*collection[models.House]
	base
	gateway HouseGateway
}

func NewHouseStore(gateway HouseGateway, user UserSource, opts ...Option) *HouseStore {
	return &HouseStore{
		collection: newCollection(
			func(h models.House) string { return h.ID },
			func(h models.House) models.House { return h },
		),
		base:    newBase("houses", user, opts),
		gateway: gateway,
	}
}

func (s *HouseStore) Load(ctx context.Context) error {
	return load(ctx, s.collection, &s.base, s.gateway.ListHouses)
}

func (s *HouseStore) Add(ctx context.Context, input services.CreateHouseInput) (*models.House, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pending := models.House{
		ID:        tempID(),
		UserID:    userID,
		Name:      strings.TrimSpace(input.Name),
		Address:   input.Address,
		Photo:     input.Photo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return addOptimistic(s.collection, &s.base, 0, pending, func() (*models.House, error) {
		return s.gateway.CreateHouse(ctx, userID, input)
	})
}

func (s *HouseStore) Update(ctx context.Context, id string, input services.UpdateHouseInput) (*models.House, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	return updateOptimistic(s.collection, &s.base, "update", id,
		func(h *models.House) {
			input.Apply(h)
			h.UpdatedAt = time.Now().UTC()
		},
		func() (*models.House, error) {
			return s.gateway.UpdateHouse(ctx, userID, id, input)
		},
	)
}

// Delete removes the house. Use Stores.DeleteHouse to drop its rooms from
// the room store as well.
func (s *HouseStore) Delete(ctx context.Context, id string) error {
	userID, err := s.currentUser()
	if err != nil {
		return err
	}

	return deleteOptimistic(s.collection, &s.base, id, func() error {
		return s.gateway.DeleteHouse(ctx, userID, id)
	})
}
