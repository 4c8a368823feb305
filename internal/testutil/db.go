// Package testutil opens throwaway SQLite databases carrying the billing schema plus the
// reservation-side tables, and seeds reservations for repository and handler tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"hotelbilling/internal/infra"
	"hotelbilling/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite returns an in-memory database private to t.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.Client{}, &model.Hotel{}, &model.Room{}, &model.Service{},
		&model.Reservation{}, &model.Payment{},
	))
	require.NoError(t, infra.RunMigrations(db))
	return db
}

// Stay describes the reservation SeedReservation creates.
type Stay struct {
	ClientID      uuid.UUID // zero: a new client is created
	RoomPrice     decimal.Decimal
	ServicePrices []decimal.Decimal
	CheckIn       *time.Time
	CheckOut      *time.Time
}

// DefaultStay is three nights at 100 with one 20 service: 360 in total.
func DefaultStay() Stay {
	in := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 4, 11, 0, 0, 0, time.UTC)
	return Stay{
		RoomPrice:     decimal.NewFromInt(100),
		ServicePrices: []decimal.Decimal{decimal.NewFromInt(20)},
		CheckIn:       &in,
		CheckOut:      &out,
	}
}

// SeedReservation inserts a hotel, room, services, client (unless ClientID is set) and the
// reservation itself, returning the reservation.
func SeedReservation(t *testing.T, db *gorm.DB, s Stay) *model.Reservation {
	t.Helper()

	hotel := model.Hotel{ID: uuid.New(), Name: "Hotel du Lac", City: "Annecy"}
	require.NoError(t, db.Create(&hotel).Error)

	room := model.Room{ID: uuid.New(), HotelID: hotel.ID, Number: "101", Type: "double", Price: s.RoomPrice}
	require.NoError(t, db.Create(&room).Error)

	clientID := s.ClientID
	if clientID == uuid.Nil {
		client := model.Client{ID: uuid.New(), Name: "Alice Martin", Email: "alice@example.com"}
		require.NoError(t, db.Create(&client).Error)
		clientID = client.ID
	}

	services := make([]model.Service, 0, len(s.ServicePrices))
	for i, p := range s.ServicePrices {
		svc := model.Service{ID: uuid.New(), Name: fmt.Sprintf("Service %d", i+1), Price: p}
		require.NoError(t, db.Create(&svc).Error)
		services = append(services, svc)
	}

	res := model.Reservation{
		ID:       uuid.New(),
		ClientID: clientID,
		RoomID:   room.ID,
		CheckIn:  s.CheckIn,
		CheckOut: s.CheckOut,
		Services: services,
	}
	require.NoError(t, db.Omit("Services.*").Create(&res).Error)
	return &res
}

// DeleteReservation removes a reservation row, leaving any invoice that references it orphaned.
func DeleteReservation(t *testing.T, db *gorm.DB, id uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Exec("DELETE FROM reservation_services WHERE reservation_id = ?", id).Error)
	require.NoError(t, db.Delete(&model.Reservation{}, "id = ?", id).Error)
}
