package repository

import (
	"context"

	"hotelbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationReader is the read-only view of the reservation subsystem.
// Every method resolves the room (with its hotel), the selected services and the client.
type ReservationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// FindByIDs returns the reservations that still exist, keyed by id. Missing ids are absent.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Reservation, error)
	ListByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Reservation, error)
}

type reservationRepo struct{ db *gorm.DB }

func NewReservationReader(db *gorm.DB) ReservationReader { return &reservationRepo{db: db} }

func (r *reservationRepo) withJoins(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Room.Hotel").
		Preload("Services")
}

func (r *reservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.withJoins(ctx).Where("id = ?", id).First(&res).Error
	return &res, err
}

func (r *reservationRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Reservation, error) {
	out := make(map[uuid.UUID]*model.Reservation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Reservation
	if err := r.withJoins(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (r *reservationRepo) ListByClientID(ctx context.Context, clientID uuid.UUID) ([]model.Reservation, error) {
	var rows []model.Reservation
	err := r.withJoins(ctx).Where("client_id = ?", clientID).Find(&rows).Error
	return rows, err
}
