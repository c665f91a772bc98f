// Package models contains database model definitions.
//
// The json tags are the column names of the hosted data service, the gorm
// tags describe the same tables for the local database.
package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Table names shared by the data clients.
const (
	TableProfiles      = "profiles"
	TableDestinations  = "destinations"
	TableHotels        = "hotels"
	TableTrips         = "trips"
	TableBookings      = "bookings"
	TableNotifications = "notifications"
)

// newID fills an empty primary key.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// flatten writes known keys and extra keys into one JSON object. Known keys win.
func flatten(extra, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(extra)+len(known))

	for k, v := range extra {
		out[k] = v
	}

	for k, v := range known {
		out[k] = v
	}

	return json.Marshal(out)
}

// split decodes a JSON object into the given known fields and returns the rest.
func split(data []byte, targets map[string]any) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err //nolint:wrapcheck
	}

	var extra map[string]any

	for k, v := range raw {
		if dst, ok := targets[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return nil, err //nolint:wrapcheck
			}

			continue
		}

		var anyValue any
		if err := json.Unmarshal(v, &anyValue); err != nil {
			return nil, err //nolint:wrapcheck
		}

		if extra == nil {
			extra = make(map[string]any)
		}

		extra[k] = anyValue
	}

	return extra, nil
}
