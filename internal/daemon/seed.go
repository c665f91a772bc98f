package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/db/models"
	"github.com/traveloop/traveloop/internal/identity"
)

// ErrAdminPassword is returned when the configured admin password is too short.
var ErrAdminPassword = errors.New("admin password must have at least 6 characters")

func seed(ctx context.Context, cfg *config.Config, gdb *gorm.DB) error {
	tx := gdb.WithContext(ctx)

	if cfg.Local.Seed {
		if err := seedCatalog(tx); err != nil {
			return err
		}
	}

	if cfg.Local.AdminEmail != "" {
		if err := seedAdmin(tx, cfg.Local.AdminEmail, cfg.Local.AdminPassword); err != nil {
			return err
		}
	}

	return nil
}

// seedCatalog fills empty catalog tables.
func seedCatalog(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&models.Destination{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count destinations: %w", err)
	}

	if count == 0 {
		if err := gdb.Create(&[]models.Destination{
			{
				Name: "Lisbon", Country: "Portugal", Category: "city", Rating: 4.7, PriceRange: "$$",
				BestTime: "March to May", Highlights: []string{"Alfama", "Belém Tower", "Tram 28"},
				Description: "Hilly coastal capital with tiled facades and a lively food scene.",
			},
			{
				Name: "Kyoto", Country: "Japan", Category: "culture", Rating: 4.9, PriceRange: "$$$",
				BestTime: "October to November", Highlights: []string{"Fushimi Inari", "Gion", "Arashiyama"},
				Description: "Temples, gardens and traditional wooden machiya houses.",
			},
			{
				Name: "Queenstown", Country: "New Zealand", Category: "adventure", Rating: 4.8, PriceRange: "$$$",
				BestTime: "December to February", Highlights: []string{"Milford Sound", "Skyline Gondola"},
				Description: "Lakeside base for hiking, skiing and bungee jumping.",
			},
		}).Error; err != nil {
			return fmt.Errorf("failed to seed destinations: %w", err)
		}

		log.Info().Msg("destinations seeded")
	}

	if err := gdb.Model(&models.Hotel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count hotels: %w", err)
	}

	if count == 0 {
		if err := gdb.Create(&[]models.Hotel{
			{
				Name: "Casa do Rio", Location: "Lisbon, Portugal", Category: "boutique", Rating: 4.6,
				Price: 140, OriginalPrice: 180, Availability: true,
				Amenities: []string{"wifi", "breakfast"}, Features: []string{"river view"},
			},
			{
				Name: "Ryokan Hanami", Location: "Kyoto, Japan", Category: "traditional", Rating: 4.9,
				Price: 320, OriginalPrice: 320, Availability: true,
				Amenities: []string{"onsen", "kaiseki dinner"}, Features: []string{"garden"},
			},
			{
				Name: "Lakeview Lodge", Location: "Queenstown, New Zealand", Category: "lodge", Rating: 4.4,
				Price: 210, OriginalPrice: 240, Availability: false,
				Amenities: []string{"wifi", "parking"}, Features: []string{"lake view", "fireplace"},
			},
		}).Error; err != nil {
			return fmt.Errorf("failed to seed hotels: %w", err)
		}

		log.Info().Msg("hotels seeded")
	}

	return nil
}

// seedAdmin creates a confirmed admin account with its profile unless the e-mail is taken.
func seedAdmin(gdb *gorm.DB, email, password string) error {
	if len(password) < 6 { //nolint:mnd
		return ErrAdminPassword
	}

	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := gdb.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}

	if count > 0 {
		return nil
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return err //nolint:wrapcheck
	}

	now := time.Now()
	account := models.Account{
		Email:        email,
		Password:     hash,
		UserMetadata: identity.Metadata{Name: "Admin"},
		AppMetadata:  map[string]any{"provider": "email"},
		ConfirmedAt:  &now,
	}

	err = gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create admin account: %w", err)
		}

		return tx.Create(&models.Profile{
			ID:    account.ID,
			Name:  "Admin",
			Email: email,
			Role:  models.RoleAdmin,
		}).Error
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	log.Warn().Str("email", email).Msg("admin account created, change the password after the first sign-in")

	return nil
}
