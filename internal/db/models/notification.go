package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is a message shown to one user.
type Notification struct {
	ID        string    `json:"id,omitempty"        gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id"             gorm:"size:36;not null;index"`
	Content   string    `json:"content"             gorm:"not null"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// BeforeCreate assigns the id.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	newID(&n.ID)

	return nil
}
