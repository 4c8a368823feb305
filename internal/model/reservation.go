package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The types below mirror tables owned by the reservation subsystem.
// This service only reads them.

// Client is the guest who booked a reservation.
type Client struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name  string    `gorm:"not null"`
	Email string    `gorm:"index"`
}

// Hotel owns rooms.
type Hotel struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"not null"`
	City    string
	Address string
}

// Room has a nightly price and belongs to a hotel.
type Room struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	HotelID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Number  string          `gorm:"not null"`
	Type    string
	Price   decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Hotel *Hotel `gorm:"foreignKey:HotelID"`
}

// Service is an optional extra (breakfast, spa, parking) priced per selection.
type Service struct {
	ID    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name  string          `gorm:"not null"`
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null"`
}

// Reservation books a room for a date range.
// CheckIn and CheckOut are nullable upstream; reconciliation flags rows where either is missing.
type Reservation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ClientID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	RoomID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	CheckIn   *time.Time `gorm:"column:check_in"`
	CheckOut  *time.Time `gorm:"column:check_out"`
	CreatedAt time.Time

	Client   *Client   `gorm:"foreignKey:ClientID"`
	Room     *Room     `gorm:"foreignKey:RoomID"`
	Services []Service `gorm:"many2many:reservation_services"`
}

// HasStayDates reports whether both check-in and check-out are set.
func (r *Reservation) HasStayDates() bool {
	return r.CheckIn != nil && r.CheckOut != nil
}

// Payment is settled by the payment subsystem and referenced from an invoice.
type Payment struct {
	ID     uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method string          `gorm:"type:varchar(30)"`
	PaidAt *time.Time
}
