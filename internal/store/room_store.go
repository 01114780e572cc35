package store

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/services"
)

// RoomStore mirrors the rooms of all the signed-in user's houses, oldest
// first. Task changes are made on the local copy of a room and written back
// as the room's whole task collection.
type RoomStore struct {
	*collection[models.Room]
	base
	gateway RoomGateway
}

func NewRoomStore(gateway RoomGateway, user UserSource, opts ...Option) *RoomStore {
	return &RoomStore{
		collection: newCollection(
			func(r models.Room) string { return r.ID },
			models.Room.Clone,
		),
		base:    newBase("rooms", user, opts),
		gateway: gateway,
	}
}

func (s *RoomStore) Load(ctx context.Context) error {
	return load(ctx, s.collection, &s.base, s.gateway.ListRooms)
}

// ForHouse returns copies of the rooms that belong to houseID.
func (s *RoomStore) ForHouse(houseID string) []models.Room {
	rooms := s.Items()
	return slices.DeleteFunc(rooms, func(r models.Room) bool { return r.HouseID != houseID })
}

func (s *RoomStore) Add(ctx context.Context, input services.CreateRoomInput) (*models.Room, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	pending := models.Room{
		ID:        tempID(),
		HouseID:   input.HouseID,
		Name:      strings.TrimSpace(input.Name),
		Budget:    input.Budget,
		Deadline:  input.Deadline,
		Thumbnail: input.Thumbnail,
		Photos:    services.FilterPhotos(input.Photos),
		Tasks:     []models.Task{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return addOptimistic(s.collection, &s.base, s.Len(), pending, func() (*models.Room, error) {
		return s.gateway.CreateRoom(ctx, userID, input)
	})
}

func (s *RoomStore) Update(ctx context.Context, id string, input services.UpdateRoomInput) (*models.Room, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}

	return updateOptimistic(s.collection, &s.base, "update", id,
		func(r *models.Room) {
			input.Apply(r)
			r.UpdatedAt = time.Now().UTC()
		},
		func() (*models.Room, error) {
			return s.gateway.UpdateRoom(ctx, userID, id, input)
		},
	)
}

func (s *RoomStore) Delete(ctx context.Context, id string) error {
	userID, err := s.currentUser()
	if err != nil {
		return err
	}

	return deleteOptimistic(s.collection, &s.base, id, func() error {
		return s.gateway.DeleteRoom(ctx, userID, id)
	})
}

// AddTask appends a task to the room. The task carries a temporary ID until
// the gateway assigns the real one.
func (s *RoomStore) AddTask(ctx context.Context, roomID string, input services.CreateTaskInput) (*models.Task, error) {
	now := time.Now().UTC()
	task := models.Task{
		ID:        tempID(),
		Title:     strings.TrimSpace(input.Title),
		Done:      input.Done,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Cost != nil {
		cost := *input.Cost
		task.Cost = &cost
	}

	room, err := s.writeTasks(ctx, "add_task", roomID, func(tasks []models.Task) ([]models.Task, error) {
		return append(tasks, task), nil
	})
	if err != nil {
		return nil, err
	}

	// New tasks are appended, so the stored copy is the last one.
	if n := len(room.Tasks); n > 0 {
		created := room.Tasks[n-1]
		return &created, nil
	}
	return nil, ErrNotLoaded
}

// UpdateTask applies a partial update to one task of the room.
func (s *RoomStore) UpdateTask(ctx context.Context, roomID, taskID string, input services.UpdateTaskInput) error {
	return s.updateTask(ctx, "update_task", roomID, taskID, input)
}

// ToggleTask flips the task's done flag through the regular update path.
func (s *RoomStore) ToggleTask(ctx context.Context, roomID, taskID string) error {
	room, ok := s.Get(roomID)
	if !ok {
		return ErrNotLoaded
	}
	idx := room.FindTask(taskID)
	if idx == -1 {
		return services.ErrTaskNotFound
	}

	done := !room.Tasks[idx].Done
	return s.updateTask(ctx, "toggle_task", roomID, taskID, services.UpdateTaskInput{Done: &done})
}

func (s *RoomStore) DeleteTask(ctx context.Context, roomID, taskID string) error {
	_, err := s.writeTasks(ctx, "delete_task", roomID, func(tasks []models.Task) ([]models.Task, error) {
		idx := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == taskID })
		if idx == -1 {
			return nil, services.ErrTaskNotFound
		}
		return slices.Delete(tasks, idx, idx+1), nil
	})
	return err
}

func (s *RoomStore) updateTask(ctx context.Context, op, roomID, taskID string, input services.UpdateTaskInput) error {
	_, err := s.writeTasks(ctx, op, roomID, func(tasks []models.Task) ([]models.Task, error) {
		idx := slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == taskID })
		if idx == -1 {
			return nil, services.ErrTaskNotFound
		}
		input.Apply(&tasks[idx])
		tasks[idx].UpdatedAt = time.Now().UTC()
		return tasks, nil
	})
	return err
}

// writeTasks computes the room's next task collection with change, publishes
// it and writes it through the gateway. Temporary task IDs are sent empty so
// the gateway assigns real ones.
func (s *RoomStore) writeTasks(ctx context.Context, op, roomID string, change func([]models.Task) ([]models.Task, error)) (*models.Room, error) {
	userID, err := s.currentUser()
	if err != nil {
		return nil, err
	}
	if IsTemporaryID(roomID) {
		return nil, ErrPending
	}

	current, ok := s.Get(roomID)
	if !ok {
		return nil, ErrNotLoaded
	}
	next, err := change(current.Clone().Tasks)
	if err != nil {
		return nil, err
	}

	outgoing := make([]models.Task, len(next))
	for i, t := range next {
		t = t.Clone()
		if IsTemporaryID(t.ID) {
			t.ID = ""
		}
		outgoing[i] = t
	}

	return updateOptimistic(s.collection, &s.base, op, roomID,
		func(r *models.Room) {
			r.Tasks = next
			r.UpdatedAt = time.Now().UTC()
		},
		func() (*models.Room, error) {
			return s.gateway.ReplaceTasks(ctx, userID, roomID, outgoing)
		},
	)
}

// detachHouse drops the rooms of houseID locally and returns them.
func (s *RoomStore) detachHouse(houseID string) []models.Room {
	var removed []models.Room
	s.mutate(func(rooms []models.Room) []models.Room {
		return slices.DeleteFunc(rooms, func(r models.Room) bool {
			if r.HouseID == houseID {
				removed = append(removed, r)
				return true
			}
			return false
		})
	})
	return removed
}

// restore appends rooms that are not already present.
func (s *RoomStore) restore(rooms []models.Room) {
	if len(rooms) == 0 {
		return
	}
	s.mutate(func(current []models.Room) []models.Room {
		for _, r := range rooms {
			if !slices.ContainsFunc(current, func(c models.Room) bool { return c.ID == r.ID }) {
				current = append(current, r)
			}
		}
		return current
	})
}
