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

// HouseService handles house business logic
type HouseService struct {
	houses repository.HouseRepository
	log    *zap.Logger
}

// NewHouseService creates a new HouseService
func NewHouseService(houses repository.HouseRepository, log *zap.Logger) *HouseService {
	return &HouseService{
		houses: houses,
		log:    logging.OrNop(log),
	}
}

// CreateHouseInput represents input for creating a house
type CreateHouseInput struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Photo   string `json:"photo,omitempty"`
}

// UpdateHouseInput represents a partial house update
type UpdateHouseInput struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Photo   *string `json:"photo,omitempty"`
}

// Apply copies the set fields onto h.
func (in UpdateHouseInput) Apply(h *models.House) {
	if in.Name != nil {
		h.Name = strings.TrimSpace(*in.Name)
	}
	if in.Address != nil {
		h.Address = *in.Address
	}
	if in.Photo != nil {
		h.Photo = *in.Photo
	}
}

// ListHouses returns the user's houses, most recent first
func (s *HouseService) ListHouses(ctx context.Context, userID string) ([]models.House, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	houses, err := s.houses.ListByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list houses", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	return houses, nil
}

// GetHouse returns one of the user's houses
func (s *HouseService) GetHouse(ctx context.Context, userID, id string) (*models.House, error) {
	house, err := s.houses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHouseNotFound
		}
		return nil, fmt.Errorf("failed to find house: %w", err)
	}

	// Foreign houses look missing rather than forbidden.
	if house.UserID != userID {
		return nil, ErrHouseNotFound
	}
	return house, nil
}

// CreateHouse creates a house owned by the user
func (s *HouseService) CreateHouse(ctx context.Context, userID string, input CreateHouseInput) (*models.House, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	house := &models.House{
		UserID:  userID,
		Name:    name,
		Address: input.Address,
		Photo:   input.Photo,
	}

	if err := s.houses.Create(ctx, house); err != nil {
		s.log.Error("failed to create house", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create house: %w", err)
	}

	return house, nil
}

// UpdateHouse applies a partial update to one of the user's houses
func (s *HouseService) UpdateHouse(ctx context.Context, userID, id string, input UpdateHouseInput) (*models.House, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}

	house, err := s.GetHouse(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	input.Apply(house)

	if err := s.houses.Update(ctx, house); err != nil {
		s.log.Error("failed to update house", zap.String("house_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update house: %w", err)
	}

	return house, nil
}

// DeleteHouse deletes one of the user's houses along with its rooms
func (s *HouseService) DeleteHouse(ctx context.Context, userID, id string) error {
	if _, err := s.GetHouse(ctx, userID, id); err != nil {
		return err
	}

	if err := s.houses.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete house", zap.String("house_id", id), zap.Error(err))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHouseNotFound
		}
		return fmt.Errorf("failed to delete house: %w", err)
	}

	return nil
}
