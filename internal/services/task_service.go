package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/models"
	"github.com/yukikurage/oppuss/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskSuggester produces renovation task suggestions from free text.
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, roomName, text string) ([]SuggestedTask, error)
}

// TaskService handles tasks. Tasks live inside their room, so every write
// reads the room's task collection and writes the whole collection back.
type TaskService struct {
	rooms     repository.RoomRepository
	houses    repository.HouseRepository
	suggester TaskSuggester
	log       *zap.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil.
func NewTaskService(rooms repository.RoomRepository, houses repository.HouseRepository, suggester TaskSuggester, log *zap.Logger) *TaskService {
	return &TaskService{
		rooms:     rooms,
		houses:    houses,
		suggester: suggester,
		log:       logging.OrNop(log),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title string   `json:"title"`
	Done  bool     `json:"done"`
	Note  string   `json:"note,omitempty"`
	Cost  *float64 `json:"cost,omitempty"`
}

// UpdateTaskInput represents a partial task update
type UpdateTaskInput struct {
	Title     *string  `json:"title,omitempty"`
	Done      *bool    `json:"done,omitempty"`
	Note      *string  `json:"note,omitempty"`
	Cost      *float64 `json:"cost,omitempty"`
	ClearCost bool     `json:"clearCost,omitempty"`
}

// Apply copies the set fields onto t.
func (in UpdateTaskInput) Apply(t *models.Task) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Done != nil {
		t.Done = *in.Done
	}
	if in.Note != nil {
		t.Note = *in.Note
	}
	if in.ClearCost {
		t.Cost = nil
	} else if in.Cost != nil {
		cost := *in.Cost
		t.Cost = &cost
	}
}

func validateCost(cost *float64) error {
	if cost == nil {
		return nil
	}
	if *cost < 0 || math.IsNaN(*cost) || math.IsInf(*cost, 0) {
		return ErrInvalidCost
	}
	return nil
}

// AddTask appends a new task to the room
func (s *TaskService) AddTask(ctx context.Context, userID, roomID string, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if err := validateCost(input.Cost); err != nil {
		return nil, err
	}

	room, err := loadOwnedRoom(ctx, s.houses, s.rooms, userID, roomID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := models.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Done:      input.Done,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Cost != nil {
		cost := *input.Cost
		task.Cost = &cost
	}

	tasks := append(append([]models.Task(nil), room.Tasks...), task)
	if err := s.writeTasks(ctx, roomID, tasks); err != nil {
		return nil, err
	}

	return &task, nil
}

// UpdateTask applies a partial update to a task in the room
func (s *TaskService) UpdateTask(ctx context.Context, userID, roomID, taskID string, input UpdateTaskInput) (*models.Task, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if err := validateCost(input.Cost); err != nil {
		return nil, err
	}

	room, err := loadOwnedRoom(ctx, s.houses, s.rooms, userID, roomID)
	if err != nil {
		return nil, err
	}

	idx := room.FindTask(taskID)
	if idx == -1 {
		return nil, ErrTaskNotFound
	}

	tasks := append([]models.Task(nil), room.Tasks...)
	input.Apply(&tasks[idx])
	tasks[idx].UpdatedAt = s.now()

	if err := s.writeTasks(ctx, roomID, tasks); err != nil {
		return nil, err
	}

	task := tasks[idx]
	return &task, nil
}

// ToggleTask flips a task between done and not done
func (s *TaskService) ToggleTask(ctx context.Context, userID, roomID, taskID string) (*models.Task, error) {
	room, err := loadOwnedRoom(ctx, s.houses, s.rooms, userID, roomID)
	if err != nil {
		return nil, err
	}

	idx := room.FindTask(taskID)
	if idx == -1 {
		return nil, ErrTaskNotFound
	}

	done := !room.Tasks[idx].Done
	return s.UpdateTask(ctx, userID, roomID, taskID, UpdateTaskInput{Done: &done})
}

// DeleteTask removes a task from the room
func (s *TaskService) DeleteTask(ctx context.Context, userID, roomID, taskID string) error {
	room, err := loadOwnedRoom(ctx, s.houses, s.rooms, userID, roomID)
	if err != nil {
		return err
	}

	idx := room.FindTask(taskID)
	if idx == -1 {
		return ErrTaskNotFound
	}

	tasks := make([]models.Task, 0, len(room.Tasks)-1)
	tasks = append(tasks, room.Tasks[:idx]...)
	tasks = append(tasks, room.Tasks[idx+1:]...)

	return s.writeTasks(ctx, roomID, tasks)
}

// GenerateTasks asks the suggester for tasks matching the text. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, userID, roomID, text string) ([]SuggestedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	room, err := loadOwnedRoom(ctx, s.houses, s.rooms, userID, roomID)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.suggester.SuggestTasks(ctx, room.Name, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(suggestions) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	valid := make([]SuggestedTask, 0, len(suggestions))
	for _, suggestion := range suggestions {
		suggestion.Title = strings.TrimSpace(suggestion.Title)
		if suggestion.Title == "" {
			continue
		}
		if validateCost(suggestion.Cost) != nil {
			suggestion.Cost = nil
		}
		valid = append(valid, suggestion)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) writeTasks(ctx context.Context, roomID string, tasks []models.Task) error {
	if err := s.rooms.UpdateTasks(ctx, roomID, tasks); err != nil {
		s.log.Error("failed to write room tasks", zap.String("room_id", roomID), zap.Error(err))
		return fmt.Errorf("failed to update tasks: %w", err)
	}
	return nil
}
