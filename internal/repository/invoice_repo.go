package repository

import (
	"context"
	"time"

	"hotelbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	// Create inserts a new invoice. A second invoice for the same reservation is rejected by the
	// unique index and surfaces as gorm.ErrDuplicatedKey.
	Create(ctx context.Context, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Invoice, error)
	ExistsForReservation(ctx context.Context, reservationID uuid.UUID) (bool, error)
	// List returns invoices newest first. Empty status means no filter.
	List(ctx context.Context, status model.InvoiceStatus) ([]model.Invoice, error)
	ListByReservationIDs(ctx context.Context, reservationIDs []uuid.UUID, status model.InvoiceStatus) ([]model.Invoice, error)
	// Update writes the non-nil fields of changes in one statement. Returns gorm.ErrRecordNotFound
	// when no invoice has the given id.
	Update(ctx context.Context, id uuid.UUID, changes InvoiceChanges) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Sweep walks every invoice in primary-key order, batchSize rows at a time.
	// fn may delete rows of the batch it receives.
	Sweep(ctx context.Context, batchSize int, fn func(batch []model.Invoice) error) error
}

// InvoiceChanges lists the mutable invoice columns. Nil fields are left untouched.
type InvoiceChanges struct {
	Status    *model.InvoiceStatus
	PaymentID *uuid.UUID
}

func (c InvoiceChanges) Empty() bool { return c.Status == nil && c.PaymentID == nil }

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) ExistsForReservation(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("reservation_id = ?", reservationID).
		Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepo) List(ctx context.Context, status model.InvoiceStatus) ([]model.Invoice, error) {
	var invoices []model.Invoice
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("issued_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) ListByReservationIDs(ctx context.Context, reservationIDs []uuid.UUID, status model.InvoiceStatus) ([]model.Invoice, error) {
	if len(reservationIDs) == 0 {
		return nil, nil
	}
	var invoices []model.Invoice
	q := r.db.WithContext(ctx).Where("reservation_id IN ?", reservationIDs)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("issued_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) Update(ctx context.Context, id uuid.UUID, changes InvoiceChanges) error {
	cols := map[string]interface{}{"updated_at": time.Now().UTC()}
	if changes.Status != nil {
		cols["status"] = *changes.Status
	}
	if changes.PaymentID != nil {
		cols["payment_id"] = *changes.PaymentID
	}
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Invoice{}).Error
}

func (r *invoiceRepo) Sweep(ctx context.Context, batchSize int, fn func(batch []model.Invoice) error) error {
	var batch []model.Invoice
	return r.db.WithContext(ctx).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
}
