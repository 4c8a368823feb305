package repository

import (
	"context"

	"hotelbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentReader resolves payment records referenced by invoices. It never writes.
type PaymentReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Payment, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentReader(db *gorm.DB) PaymentReader { return &paymentRepo{db: db} }

func (r *paymentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Payment, error) {
	out := make(map[uuid.UUID]*model.Payment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []model.Payment
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}
