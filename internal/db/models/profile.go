package models

import (
	"time"

	"gorm.io/gorm"
)

// Role of a profile.
type Role string

const (
	// RoleUser is the default role of every new profile.
	RoleUser Role = "user"
	// RoleAdmin unlocks the admin dashboard.
	RoleAdmin Role = "admin"
)

// Profile is the application side record of a user, keyed by the user id.
type Profile struct {
	ID          string             `json:"id"                    gorm:"primaryKey;size:36"`
	Role        Role               `json:"role,omitempty"        gorm:"size:10;not null;default:'user'" validate:"omitempty,oneof=user admin"`
	Name        string             `json:"name,omitempty"        gorm:"size:255"                        validate:"omitempty,max=255"`
	Email       string             `json:"email,omitempty"       gorm:"size:255"                        validate:"omitempty,email"`
	Preferences ProfilePreferences `json:"preferences"           gorm:"type:text;serializer:json"`
	Interests   []string           `json:"interests,omitempty"   gorm:"type:text;serializer:json"                 validate:"omitempty,max=20,dive,min=1,max=50"`
	CreatedAt   time.Time          `json:"created_at,omitzero"`
	UpdatedAt   time.Time          `json:"updated_at,omitzero"`
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// BeforeCreate defaults the role.
func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.Role == "" {
		p.Role = RoleUser
	}

	return nil
}

// ProfilePreferences are the travel preferences of a profile.
// Unknown keys written by other clients are kept in Extra.
type ProfilePreferences struct {
	Currency    string         `validate:"omitempty,iso4217"`
	TravelStyle string         `validate:"omitempty,oneof=budget comfort luxury adventure"`
	Newsletter  bool
	Extra       map[string]any `validate:"-"`
}

// MarshalJSON implements json.Marshaler.
func (p ProfilePreferences) MarshalJSON() ([]byte, error) {
	known := map[string]any{}

	if p.Currency != "" {
		known["currency"] = p.Currency
	}

	if p.TravelStyle != "" {
		known["travel_style"] = p.TravelStyle
	}

	if p.Newsletter {
		known["newsletter"] = true
	}

	return flatten(p.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ProfilePreferences) UnmarshalJSON(data []byte) error {
	var out ProfilePreferences

	extra, err := split(data, map[string]any{
		"currency":     &out.Currency,
		"travel_style": &out.TravelStyle,
		"newsletter":   &out.Newsletter,
	})
	if err != nil {
		return err
	}

	out.Extra = extra
	*p = out

	return nil
}
