package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RoomService handles room business logic
type RoomService struct {
	rooms  repository.RoomRepository
	houses repository.HouseRepository
	log    *zap.Logger
}

// NewRoomService creates a new RoomService
func NewRoomService(rooms repository.RoomRepository, houses repository.HouseRepository, log *zap.Logger) *RoomService {
	return &RoomService{
		rooms:  rooms,
		houses: houses,
		log:    logging.OrNop(log),
	}
}

// CreateRoomInput represents input for creating a room
type CreateRoomInput struct {
	HouseID   string   `json:"houseId"`
	Name      string   `json:"name"`
	Budget    float64  `json:"budget"`
	Deadline  string   `json:"deadline"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Photos    []string `json:"photos,omitempty"`
}

// UpdateRoomInput represents a partial room update. Tasks are never part of
// a room update; they go through TaskService.
type UpdateRoomInput struct {
	Name      *string   `json:"name,omitempty"`
	Budget    *float64  `json:"budget,omitempty"`
	Deadline  *string   `json:"deadline,omitempty"`
	Thumbnail *string   `json:"thumbnail,omitempty"`
	Photos    *[]string `json:"photos,omitempty"`
}

// Apply copies the set fields onto r.
func (in UpdateRoomInput) Apply(r *models.Room) {
	if in.Name != nil {
		r.Name = strings.TrimSpace(*in.Name)
	}
	if in.Budget != nil {
		r.Budget = *in.Budget
	}
	if in.Deadline != nil {
		r.Deadline = *in.Deadline
	}
	if in.Thumbnail != nil {
		r.Thumbnail = *in.Thumbnail
	}
	if in.Photos != nil {
		r.Photos = FilterPhotos(*in.Photos)
	}
}

// FilterPhotos keeps only entries that are data URLs.
func FilterPhotos(photos []string) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		if strings.HasPrefix(p, "data:") {
			out = append(out, p)
		}
	}
	return out
}

// ValidateBudget rejects negative and non-finite amounts.
func ValidateBudget(budget float64) error {
	if budget < 0 || math.IsNaN(budget) || math.IsInf(budget, 0) {
		return ErrInvalidBudget
	}
	return nil
}

// ValidateDeadline accepts an empty deadline, a calendar date or an RFC 3339 timestamp.
func ValidateDeadline(deadline string) error {
	if deadline == "" {
		return nil
	}
	if _, err := time.Parse(models.DeadlineLayout, deadline); err == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, deadline); err == nil {
		return nil
	}
	return ErrInvalidDeadline
}

// ListRooms returns the rooms of every house the user owns
func (s *RoomService) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	rooms, err := s.rooms.ListByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list rooms", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// ListRoomsForHouse returns the rooms of one of the user's houses
func (s *RoomService) ListRoomsForHouse(ctx context.Context, userID, houseID string) ([]models.Room, error) {
	if err := s.ensureHouseOwner(ctx, userID, houseID); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListByHouseID(ctx, houseID)
	if err != nil {
		s.log.Error("failed to list rooms", zap.String("house_id", houseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom returns a room inside one of the user's houses
func (s *RoomService) GetRoom(ctx context.Context, userID, id string) (*models.Room, error) {
	return loadOwnedRoom(ctx, s.houses, s.rooms, userID, id)
}

// CreateRoom creates a room inside one of the user's houses
func (s *RoomService) CreateRoom(ctx context.Context, userID string, input CreateRoomInput) (*models.Room, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if err := ValidateBudget(input.Budget); err != nil {
		return nil, err
	}
	if err := ValidateDeadline(input.Deadline); err != nil {
		return nil, err
	}
	if err := s.ensureHouseOwner(ctx, userID, input.HouseID); err != nil {
		return nil, err
	}

	room := &models.Room{
		HouseID:   input.HouseID,
		Name:      name,
		Budget:    input.Budget,
		Deadline:  input.Deadline,
		Thumbnail: input.Thumbnail,
		Photos:    FilterPhotos(input.Photos),
		Tasks:     []models.Task{},
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		s.log.Error("failed to create room", zap.String("house_id", input.HouseID), zap.Error(err))
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// UpdateRoom applies a partial update to a room
func (s *RoomService) UpdateRoom(ctx context.Context, userID, id string, input UpdateRoomInput) (*models.Room, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, ErrNameRequired
	}
	if input.Budget != nil {
		if err := ValidateBudget(*input.Budget); err != nil {
			return nil, err
		}
	}
	if input.Deadline != nil {
		if err := ValidateDeadline(*input.Deadline); err != nil {
			return nil, err
		}
	}

	room, err := s.GetRoom(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if input.Photos != nil {
		s.log.Debug("updating room photos", zap.String("room_id", id), zap.Int("count", len(*input.Photos)))
	}
	input.Apply(room)

	return room, s.save(ctx, room)
}

// AppendPhotos adds encoded photos to the end of the room's photo list
func (s *RoomService) AppendPhotos(ctx context.Context, userID, id string, photos []string) (*models.Room, error) {
	valid := FilterPhotos(photos)
	if len(valid) == 0 {
		return nil, ErrNoPhotos
	}

	room, err := s.GetRoom(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	room.Photos = append(room.Photos, valid...)

	return room, s.save(ctx, room)
}

// RemovePhoto removes the photo at index from the room
func (s *RoomService) RemovePhoto(ctx context.Context, userID, id string, index int) (*models.Room, error) {
	room, err := s.GetRoom(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(room.Photos) {
		return nil, ErrPhotoNotFound
	}
	room.Photos = append(room.Photos[:index:index], room.Photos[index+1:]...)

	return room, s.save(ctx, room)
}

// ReplaceTasks writes tasks as the room's whole task collection and returns
// the stored room. Tasks without an ID are new and get one assigned.
func (s *RoomService) ReplaceTasks(ctx context.Context, userID, id string, tasks []models.Task) (*models.Room, error) {
	now := time.Now().UTC()
	out := make([]models.Task, len(tasks))
	ids := make(map[string]struct{}, len(tasks))
	for i, t := range tasks {
		t = t.Clone()
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return nil, ErrTitleRequired
		}
		if err := validateCost(t.Cost); err != nil {
			return nil, err
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, dup := ids[t.ID]; dup {
			return nil, ErrDuplicateTaskID
		}
		ids[t.ID] = struct{}{}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		out[i] = t
	}

	if _, err := s.GetRoom(ctx, userID, id); err != nil {
		return nil, err
	}

	if err := s.rooms.UpdateTasks(ctx, id, out); err != nil {
		s.log.Error("failed to write room tasks", zap.String("room_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update tasks: %w", err)
	}

	return s.GetRoom(ctx, userID, id)
}

// DeleteRoom deletes a room
func (s *RoomService) DeleteRoom(ctx context.Context, userID, id string) error {
	if _, err := s.GetRoom(ctx, userID, id); err != nil {
		return err
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		s.log.Error("failed to delete room", zap.String("room_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}

func (s *RoomService) save(ctx context.Context, room *models.Room) error {
	if err := s.rooms.Update(ctx, room); err != nil {
		s.log.Error("failed to update room", zap.String("room_id", room.ID), zap.Error(err))
		return fmt.Errorf("failed to update room: %w", err)
	}
	return nil
}

func (s *RoomService) ensureHouseOwner(ctx context.Context, userID, houseID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	house, err := s.houses.FindByID(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHouseNotFound
		}
		return fmt.Errorf("failed to find house: %w", err)
	}
	if house.UserID != userID {
		return ErrHouseNotFound
	}
	return nil
}

// loadOwnedRoom finds a room and verifies that its house belongs to the user.
// Rooms of foreign houses are reported as missing.
func loadOwnedRoom(ctx context.Context, houses repository.HouseRepository, rooms repository.RoomRepository, userID, roomID string) (*models.Room, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	room, err := rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}

	house, err := houses.FindByID(ctx, room.HouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find house: %w", err)
	}
	if house.UserID != userID {
		return nil, ErrRoomNotFound
	}

	return room, nil
}
