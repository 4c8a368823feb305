package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePending  InvoiceStatus = "PENDING"
	InvoicePaid     InvoiceStatus = "PAID"
	InvoicePartial  InvoiceStatus = "PARTIAL"
	InvoiceRefunded InvoiceStatus = "REFUNDED"
)

// InvoiceStatuses lists every value allowed in invoices.status.
var InvoiceStatuses = []InvoiceStatus{InvoicePending, InvoicePaid, InvoicePartial, InvoiceRefunded}

// Valid reports whether s is one of InvoiceStatuses.
func (s InvoiceStatus) Valid() bool {
	for _, v := range InvoiceStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Invoice is the single bill issued for a reservation.
// ReservationID is unique: the storage layer rejects a second invoice for the same reservation.
// TotalAmount and DueDate are fixed at generation time. Reservation and payment rows live in
// other subsystems and are resolved through their own readers, so no foreign keys are declared.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReservationID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uni_invoices_reservation_id"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DueDate       time.Time       `gorm:"not null"`
	Status        InvoiceStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_invoices_status_issued,priority:1"`
	IssuedAt      time.Time       `gorm:"not null;index:idx_invoices_status_issued,priority:2"`
	PaymentID     *uuid.UUID      `gorm:"type:uuid"`
	UpdatedAt     time.Time
}

// BeforeCreate assigns the primary key and issue timestamp when the caller left them empty.
func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.IssuedAt.IsZero() {
		i.IssuedAt = time.Now().UTC()
	}
	if i.Status == "" {
		i.Status = InvoicePending
	}
	return nil
}
