// cmd/seeddemo creates a demo hotel, room, services, client and reservation in a development
// database and prints the reservation ID to bill.
// Usage: go run ./cmd/seeddemo
package main

import (
	"context"
	"fmt"
	"time"

	"hotelbilling/internal/config"
	"hotelbilling/internal/infra"
	"hotelbilling/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Fatal().Msg("refusing to seed a production database")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	// The reservation tables belong to another subsystem; create them only for local demos.
	if err := db.AutoMigrate(&model.Client{}, &model.Hotel{}, &model.Room{}, &model.Service{}, &model.Reservation{}, &model.Payment{}); err != nil {
		log.Fatal().Err(err).Msg("migrate demo tables")
	}

	var reservationID uuid.UUID
	err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
		hotel := model.Hotel{ID: uuid.New(), Name: "Hotel du Lac", City: "Annecy", Address: "1 Quai Napoléon III"}
		room := model.Room{ID: uuid.New(), HotelID: hotel.ID, Number: "101", Type: "double", Price: decimal.NewFromInt(100)}
		breakfast := model.Service{ID: uuid.New(), Name: "Breakfast", Price: decimal.NewFromInt(20)}
		parking := model.Service{ID: uuid.New(), Name: "Parking", Price: decimal.NewFromInt(10)}
		client := model.Client{ID: uuid.New(), Name: "Alice Martin", Email: "alice@example.com"}

		checkIn := time.Now().UTC().Truncate(24 * time.Hour)
		checkOut := checkIn.Add(3 * 24 * time.Hour)
		res := model.Reservation{
			ID:       uuid.New(),
			ClientID: client.ID,
			RoomID:   room.ID,
			CheckIn:  &checkIn,
			CheckOut: &checkOut,
			Services: []model.Service{breakfast, parking},
		}

		for _, row := range []interface{}{&hotel, &room, &breakfast, &parking, &client} {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		if err := tx.Omit("Services.*").Create(&res).Error; err != nil {
			return err
		}
		reservationID = res.ID
		log.Info().Str("client_id", client.ID.String()).Msg("demo client created")
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	fmt.Printf("reservation %s ready to bill (3 nights × (100 + 30) = 390.00)\n", reservationID)
}
