package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShoppingItem struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	Note      string    `gorm:"type:text" json:"note,omitempty"`
	Unit      string    `gorm:"type:varchar(50)" json:"unit,omitempty"`
	Category  string    `gorm:"type:varchar(100)" json:"category,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *ShoppingItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Quantity <= 0 {
		s.Quantity = 1
	}
	return nil
}
