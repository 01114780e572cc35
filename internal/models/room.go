package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeadlineLayout is the calendar date format used for Room.Deadline.
const DeadlineLayout = "2006-01-02"

// Room is a renovation unit inside a house. Tasks and photos are stored
// embedded in the row; the task collection is always written as a whole.
type Room struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	HouseID   string    `gorm:"type:varchar(36);not null;index" json:"houseId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Budget    float64   `gorm:"not null;default:0" json:"budget"`
	Deadline  string    `gorm:"type:varchar(32)" json:"deadline"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Photos    []string  `gorm:"serializer:json" json:"photos"`
	Tasks     []Task    `gorm:"serializer:json" json:"tasks"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Photos == nil {
		r.Photos = []string{}
	}
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	return nil
}

// FindTask returns the index of the task with the given ID, or -1.
func (r *Room) FindTask(taskID string) int {
	for i := range r.Tasks {
		if r.Tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the room so callers can mutate slices freely.
func (r Room) Clone() Room {
	out := r
	if r.Photos != nil {
		out.Photos = append([]string(nil), r.Photos...)
	}
	if r.Tasks != nil {
		out.Tasks = make([]Task, len(r.Tasks))
		for i, t := range r.Tasks {
			out.Tasks[i] = t.Clone()
		}
	}
	return out
}
