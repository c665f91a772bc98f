package models

import (
	"time"

	"gorm.io/gorm"
)

// TripStatus is the lifecycle state of a trip.
type TripStatus string

// Trip states.
const (
	TripPlanned   TripStatus = "planned"
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// Trip is a planned journey of a user.
type Trip struct {
	ID            string          `json:"id,omitempty"             gorm:"primaryKey;size:36"`
	UserID        string          `json:"user_id"                  gorm:"size:36;not null;index"`
	DestinationID *string         `json:"destination_id,omitempty" gorm:"size:36"`
	StartDate     string          `json:"start_date,omitempty"     gorm:"size:10"                 validate:"omitempty,datetime=2006-01-02"`
	EndDate       string          `json:"end_date,omitempty"       gorm:"size:10"                 validate:"omitempty,datetime=2006-01-02"`
	Budget        float64         `json:"budget,omitempty"                                        validate:"gte=0"`
	Status        TripStatus      `json:"status,omitempty"         gorm:"size:20;default:'planned'" validate:"omitempty,oneof=planned ongoing completed cancelled"`
	Preferences   TripPreferences `json:"preferences"              gorm:"type:text;serializer:json"`
	CreatedAt     time.Time       `json:"created_at,omitzero"`
	UpdatedAt     time.Time       `json:"updated_at,omitzero"`

	// Destination is embedded on reads.
	Destination *Destination `json:"destination,omitempty" gorm:"foreignKey:DestinationID" validate:"-"`
}

// BeforeCreate assigns the id and the initial status.
func (t *Trip) BeforeCreate(_ *gorm.DB) error {
	newID(&t.ID)

	if t.Status == "" {
		t.Status = TripPlanned
	}

	return nil
}

// TripPreferences are the planning preferences of a trip.
type TripPreferences struct {
	Pace          string         `validate:"omitempty,oneof=relaxed moderate packed"`
	Accommodation string         `validate:"omitempty,max=100"`
	Extra         map[string]any `validate:"-"`
}

// MarshalJSON implements json.Marshaler.
func (p TripPreferences) MarshalJSON() ([]byte, error) {
	known := map[string]any{}

	if p.Pace != "" {
		known["pace"] = p.Pace
	}

	if p.Accommodation != "" {
		known["accommodation"] = p.Accommodation
	}

	return flatten(p.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *TripPreferences) UnmarshalJSON(data []byte) error {
	var out TripPreferences

	extra, err := split(data, map[string]any{
		"pace":          &out.Pace,
		"accommodation": &out.Accommodation,
	})
	if err != nil {
		return err
	}

	out.Extra = extra
	*p = out

	return nil
}

// BookingType is what a booking reserves.
type BookingType string

// Booking types.
const (
	BookingHotel    BookingType = "hotel"
	BookingFlight   BookingType = "flight"
	BookingActivity BookingType = "activity"
)

// BookingStatus is the confirmation state of a booking.
type BookingStatus string

// Booking states.
const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a reservation made for a trip.
type Booking struct {
	ID          string         `json:"id,omitempty"        gorm:"primaryKey;size:36"`
	TripID      string         `json:"trip_id"             gorm:"size:36;not null;index" validate:"required"`
	BookingType BookingType    `json:"booking_type"        gorm:"size:20;not null"       validate:"required,oneof=hotel flight activity"`
	Details     BookingDetails `json:"details"             gorm:"type:text;serializer:json"`
	Status      BookingStatus  `json:"status,omitempty"    gorm:"size:20;not null"       validate:"omitempty,oneof=confirmed pending cancelled"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
	UpdatedAt   time.Time      `json:"updated_at,omitzero"`

	// Trip is embedded on reads.
	Trip *Trip `json:"trip,omitempty" gorm:"foreignKey:TripID" validate:"-"`
}

// BeforeCreate assigns the id and the initial status.
func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	newID(&b.ID)

	if b.Status == "" {
		b.Status = BookingPending
	}

	return nil
}

// BookingDetails describe the reserved item.
type BookingDetails struct {
	Provider  string         `validate:"omitempty,max=100"`
	Reference string         `validate:"omitempty,max=100"`
	CheckIn   string         `validate:"omitempty,datetime=2006-01-02"`
	CheckOut  string         `validate:"omitempty,datetime=2006-01-02"`
	Price     float64        `validate:"gte=0"`
	Extra     map[string]any `validate:"-"`
}

// MarshalJSON implements json.Marshaler.
func (d BookingDetails) MarshalJSON() ([]byte, error) {
	known := map[string]any{}

	if d.Provider != "" {
		known["provider"] = d.Provider
	}

	if d.Reference != "" {
		known["reference"] = d.Reference
	}

	if d.CheckIn != "" {
		known["check_in"] = d.CheckIn
	}

	if d.CheckOut != "" {
		known["check_out"] = d.CheckOut
	}

	if d.Price != 0 {
		known["price"] = d.Price
	}

	return flatten(d.Extra, known)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *BookingDetails) UnmarshalJSON(data []byte) error {
	var out BookingDetails

	extra, err := split(data, map[string]any{
		"provider":  &out.Provider,
		"reference": &out.Reference,
		"check_in":  &out.CheckIn,
		"check_out": &out.CheckOut,
		"price":     &out.Price,
	})
	if err != nil {
		return err
	}

	out.Extra = extra
	*d = out

	return nil
}
