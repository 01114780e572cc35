package models

import "time"

// Task is a unit of renovation work. It only exists inside Room.Tasks.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	Note      string    `json:"note,omitempty"`
	Cost      *float64  `json:"cost,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Task) Clone() Task {
	if t.Cost != nil {
		cost := *t.Cost
		t.Cost = &cost
	}
	return t
}
