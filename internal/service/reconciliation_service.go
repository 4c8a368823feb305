package service

import (
	"context"
	"fmt"

	"hotelbilling/internal/dto"
	"hotelbilling/internal/metrics"
	"hotelbilling/internal/model"
	"hotelbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const repairBatchSize = 200

type ReconciliationService interface {
	// RepairInvoices deletes invoices whose reservation no longer exists and flags invoices whose
	// reservation lacks stay dates. Running it twice in a row removes nothing the second time.
	RepairInvoices(ctx context.Context) (*dto.RepairResponse, error)
}

type reconciliationService struct {
	invoices     repository.InvoiceRepository
	reservations repository.ReservationReader
	metrics      *metrics.Billing
}

func NewReconciliationService(
	invoices repository.InvoiceRepository,
	reservations repository.ReservationReader,
	m *metrics.Billing,
) ReconciliationService {
	return &reconciliationService{invoices: invoices, reservations: reservations, metrics: m}
}

func (s *reconciliationService) RepairInvoices(ctx context.Context) (*dto.RepairResponse, error) {
	resp := &dto.RepairResponse{Message: "Verification complete"}

	err := s.invoices.Sweep(ctx, repairBatchSize, func(batch []model.Invoice) error {
		ids := make([]uuid.UUID, 0, len(batch))
		for _, inv := range batch {
			ids = append(ids, inv.ReservationID)
		}
		reservations, err := s.reservations.FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("resolve reservations: %w", err)
		}

		for _, inv := range batch {
			resp.Total++
			res, ok := reservations[inv.ReservationID]
			switch {
			case !ok:
				if err := s.invoices.Delete(ctx, inv.ID); err != nil {
					return fmt.Errorf("delete orphaned invoice %s: %w", inv.ID, err)
				}
				resp.Orphaned++
				log.Info().
					Str("invoice_id", inv.ID.String()).
					Str("reservation_id", inv.ReservationID.String()).
					Msg("reconciliation: orphaned invoice removed")
			case !res.HasStayDates():
				resp.Incomplete++
				log.Warn().
					Str("invoice_id", inv.ID.String()).
					Str("reservation_id", inv.ReservationID.String()).
					Msg("reconciliation: reservation has no check-in or check-out date")
			default:
				resp.Valid++
			}
		}
		return nil
	})
	s.metrics.ReconciliationRun(err, resp.Orphaned, resp.Incomplete, resp.Valid)
	if err != nil {
		log.Error().Err(err).Int("processed", resp.Total).Msg("reconciliation: aborted")
		return nil, err
	}

	log.Info().
		Int("total", resp.Total).
		Int("orphaned", resp.Orphaned).
		Int("incomplete", resp.Incomplete).
		Int("valid", resp.Valid).
		Msg("reconciliation: finished")
	return resp, nil
}
