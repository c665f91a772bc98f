package models

import (
	"time"

	"gorm.io/gorm"
)

// Destination is a bookable travel destination.
type Destination struct {
	ID          string    `json:"id,omitempty"          gorm:"primaryKey;size:36"`
	Name        string    `json:"name"                  gorm:"size:255;not null"`
	Country     string    `json:"country"               gorm:"size:100;not null"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"   gorm:"size:1024"`
	Rating      float64   `json:"rating,omitempty"`
	PriceRange  string    `json:"price_range,omitempty" gorm:"size:50"`
	BestTime    string    `json:"best_time,omitempty"   gorm:"size:100"`
	Highlights  []string  `json:"highlights,omitempty"  gorm:"type:text;serializer:json"`
	Category    string    `json:"category,omitempty"    gorm:"size:50"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// BeforeCreate assigns the id.
func (d *Destination) BeforeCreate(_ *gorm.DB) error {
	newID(&d.ID)

	return nil
}

// Hotel is a bookable hotel.
type Hotel struct {
	ID            string    `json:"id,omitempty"             gorm:"primaryKey;size:36"`
	Name          string    `json:"name"                     gorm:"size:255;not null"`
	Location      string    `json:"location"                 gorm:"size:255;not null"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"      gorm:"size:1024"`
	Rating        float64   `json:"rating,omitempty"`
	Price         float64   `json:"price,omitempty"`
	OriginalPrice float64   `json:"original_price,omitempty"`
	Category      string    `json:"category,omitempty"       gorm:"size:50"`
	Amenities     []string  `json:"amenities,omitempty"      gorm:"type:text;serializer:json"`
	Features      []string  `json:"features,omitempty"       gorm:"type:text;serializer:json"`
	Availability  bool      `json:"availability"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// BeforeCreate assigns the id.
func (h *Hotel) BeforeCreate(_ *gorm.DB) error {
	newID(&h.ID)

	return nil
}
