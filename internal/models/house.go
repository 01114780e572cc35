package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// House is the top-level property record. Every house belongs to exactly one user.
type House struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   string    `gorm:"type:varchar(512)" json:"address,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Rooms []Room `gorm:"foreignKey:HouseID" json:"-"`
}

func (h *House) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
