package services

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrHouseNotFound   = errors.New("house not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrItemNotFound    = errors.New("shopping item not found")
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrNameRequired    = errors.New("name is required")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidBudget   = errors.New("budget must be a non-negative number")
	ErrInvalidCost     = errors.New("cost must be a non-negative number")
	ErrDuplicateTaskID = errors.New("task ids must be unique within a room")
	ErrInvalidDeadline = errors.New("deadline must be a date in YYYY-MM-DD format")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrNoPhotos        = errors.New("no valid photos provided")
)
