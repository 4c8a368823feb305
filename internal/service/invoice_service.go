package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbilling/internal/dto"
	"hotelbilling/internal/metrics"
	"hotelbilling/internal/model"
	"hotelbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type InvoiceService interface {
	GenerateInvoice(ctx context.Context, reservationID uuid.UUID) (*dto.GenerateInvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, req dto.UpdateInvoiceRequest) (*dto.UpdateInvoiceResponse, error)
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*dto.InvoiceResponse, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, status string) ([]dto.InvoiceResponse, error)
	ListAll(ctx context.Context, status string) ([]dto.InvoiceResponse, error)
}

type invoiceService struct {
	invoices     repository.InvoiceRepository
	reservations repository.ReservationReader
	payments     repository.PaymentReader
	metrics      *metrics.Billing
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	reservations repository.ReservationReader,
	payments repository.PaymentReader,
	m *metrics.Billing,
) InvoiceService {
	return &invoiceService{
		invoices:     invoices,
		reservations: reservations,
		payments:     payments,
		metrics:      m,
	}
}

// ── GenerateInvoice ──────────────────────────────────────────────────────────
//   1. Load the reservation with room and services
//   2. Reject if an invoice already references it
//   3. Price the stay, due date = checkout + 7 days
//   4. INSERT; the unique index on reservation_id settles concurrent duplicates

func (s *invoiceService) GenerateInvoice(ctx context.Context, reservationID uuid.UUID) (*dto.GenerateInvoiceResponse, error) {
	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.GenerationRejected("not_found")
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("load reservation %s: %w", reservationID, err)
	}

	exists, err := s.invoices.ExistsForReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("check existing invoice: %w", err)
	}
	if exists {
		s.metrics.GenerationRejected("already_exists")
		return nil, ErrAlreadyExists
	}

	in, err := pricingInputFor(res)
	if err != nil {
		s.metrics.GenerationRejected("invalid_input")
		return nil, err
	}
	price, err := CalculatePrice(in)
	if err != nil {
		s.metrics.GenerationRejected("invalid_input")
		return nil, err
	}

	inv := &model.Invoice{
		ReservationID: reservationID,
		TotalAmount:   price.TotalAmount,
		DueDate:       DueDate(in.CheckOut),
		Status:        model.InvoicePending,
		IssuedAt:      time.Now().UTC(),
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.metrics.GenerationRejected("already_exists")
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.metrics.InvoiceGenerated()

	log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("reservation_id", reservationID.String()).
		Int64("nights", price.Nights).
		Str("total", price.TotalAmount.StringFixed(2)).
		Msg("invoice generated")

	return &dto.GenerateInvoiceResponse{
		Message: "Invoice generated",
		Breakdown: dto.CostBreakdown{
			Nights:       price.Nights,
			RoomPrice:    *in.RoomPrice,
			RoomCost:     price.RoomCost,
			ServicesCost: price.ServicesCost,
			TotalAmount:  price.TotalAmount,
			DueDate:      inv.DueDate.Format(time.RFC3339),
		},
		Invoice: invoiceToResponse(inv, res, nil),
	}, nil
}

func pricingInputFor(res *model.Reservation) (PricingInput, error) {
	if !res.HasStayDates() {
		return PricingInput{}, fmt.Errorf("%w: reservation %s has no check-in or check-out date", ErrInvalidInput, res.ID)
	}
	in := PricingInput{CheckIn: *res.CheckIn, CheckOut: *res.CheckOut}
	if res.Room != nil {
		price := res.Room.Price
		in.RoomPrice = &price
	}
	for _, svc := range res.Services {
		in.ServicePrices = append(in.ServicePrices, svc.Price)
	}
	return in, nil
}

// ── UpdateInvoice ────────────────────────────────────────────────────────────
// Status and the payment link are the only mutable fields. Both are validated before anything is
// written and then persisted in one statement, so a bad value rejects the whole request.
// No transition table: any allowed status may replace any other.

func (s *invoiceService) UpdateInvoice(ctx context.Context, id uuid.UUID, req dto.UpdateInvoiceRequest) (*dto.UpdateInvoiceResponse, error) {
	var changes repository.InvoiceChanges
	if req.Status != nil {
		status := model.InvoiceStatus(*req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w %q: must be one of %v", ErrInvalidStatus, *req.Status, model.InvoiceStatuses)
		}
		changes.Status = &status
	}
	if req.PaymentID != nil {
		paymentID, err := s.resolvePayment(ctx, *req.PaymentID)
		if err != nil {
			return nil, err
		}
		changes.PaymentID = &paymentID
	}

	if !changes.Empty() {
		if err := s.invoices.Update(ctx, id, changes); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvoiceNotFound
			}
			return nil, fmt.Errorf("update invoice %s: %w", id, err)
		}
		evt := log.Info().Str("invoice_id", id.String())
		if changes.Status != nil {
			s.metrics.StatusUpdated(string(*changes.Status))
			evt = evt.Str("status", string(*changes.Status))
		}
		if changes.PaymentID != nil {
			evt = evt.Str("payment_id", changes.PaymentID.String())
		}
		evt.Msg("invoice updated")
	}

	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice %s: %w", id, err)
	}
	views, err := s.hydrate(ctx, []model.Invoice{*inv}, nil)
	if err != nil {
		return nil, err
	}
	return &dto.UpdateInvoiceResponse{Message: "Invoice updated", Invoice: views[0]}, nil
}

func (s *invoiceService) resolvePayment(ctx context.Context, raw string) (uuid.UUID, error) {
	paymentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: payment_id %q is not a UUID", ErrInvalidInput, raw)
	}
	found, err := s.payments.FindByIDs(ctx, []uuid.UUID{paymentID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("load payment %s: %w", paymentID, err)
	}
	if _, ok := found[paymentID]; !ok {
		return uuid.Nil, ErrPaymentNotFound
	}
	return paymentID, nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *invoiceService) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindByReservationID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("load invoice for reservation %s: %w", reservationID, err)
	}
	views, err := s.hydrate(ctx, []model.Invoice{*inv}, nil)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *invoiceService) ListForClient(ctx context.Context, clientID uuid.UUID, status string) ([]dto.InvoiceResponse, error) {
	st := model.InvoiceStatus(status)
	reservations, err := s.reservations.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list reservations for client %s: %w", clientID, err)
	}
	if len(reservations) == 0 {
		return []dto.InvoiceResponse{}, nil
	}

	known := make(map[uuid.UUID]*model.Reservation, len(reservations))
	ids := make([]uuid.UUID, 0, len(reservations))
	for i := range reservations {
		known[reservations[i].ID] = &reservations[i]
		ids = append(ids, reservations[i].ID)
	}

	invoices, err := s.invoices.ListByReservationIDs(ctx, ids, st)
	if err != nil {
		return nil, fmt.Errorf("list invoices for client %s: %w", clientID, err)
	}
	return s.hydrate(ctx, invoices, known)
}

func (s *invoiceService) ListAll(ctx context.Context, status string) ([]dto.InvoiceResponse, error) {
	invoices, err := s.invoices.List(ctx, model.InvoiceStatus(status))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return s.hydrate(ctx, invoices, nil)
}

// hydrate joins invoices with their reservation and payment. Reservations already in known are
// not fetched again. Reservation and payment lookups run concurrently. An invoice whose
// reservation is gone is returned without one; reconciliation removes it later.
func (s *invoiceService) hydrate(ctx context.Context, invoices []model.Invoice, known map[uuid.UUID]*model.Reservation) ([]dto.InvoiceResponse, error) {
	out := make([]dto.InvoiceResponse, 0, len(invoices))
	if len(invoices) == 0 {
		return out, nil
	}

	var missing, paymentIDs []uuid.UUID
	for _, inv := range invoices {
		if _, ok := known[inv.ReservationID]; !ok {
			missing = append(missing, inv.ReservationID)
		}
		if inv.PaymentID != nil {
			paymentIDs = append(paymentIDs, *inv.PaymentID)
		}
	}

	var fetched map[uuid.UUID]*model.Reservation
	var payments map[uuid.UUID]*model.Payment
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fetched, err = s.reservations.FindByIDs(gctx, missing)
		if err != nil {
			return fmt.Errorf("load reservations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.payments.FindByIDs(gctx, paymentIDs)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range invoices {
		inv := &invoices[i]
		res := known[inv.ReservationID]
		if res == nil {
			res = fetched[inv.ReservationID]
		}
		var pay *model.Payment
		if inv.PaymentID != nil {
			pay = payments[*inv.PaymentID]
		}
		out = append(out, invoiceToResponse(inv, res, pay))
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func invoiceToResponse(inv *model.Invoice, res *model.Reservation, pay *model.Payment) dto.InvoiceResponse {
	resp := dto.InvoiceResponse{
		ID:            inv.ID.String(),
		ReservationID: inv.ReservationID.String(),
		TotalAmount:   inv.TotalAmount,
		DueDate:       inv.DueDate.Format(time.RFC3339),
		Status:        string(inv.Status),
		IssuedAt:      inv.IssuedAt.Format(time.RFC3339),
	}
	if inv.PaymentID != nil {
		id := inv.PaymentID.String()
		resp.PaymentID = &id
	}
	if res != nil {
		resp.Reservation = reservationToResponse(res)
	}
	if pay != nil {
		resp.Payment = &dto.PaymentResponse{
			ID:     pay.ID.String(),
			Amount: pay.Amount,
			Method: pay.Method,
			PaidAt: formatTime(pay.PaidAt),
		}
	}
	return resp
}

func reservationToResponse(r *model.Reservation) *dto.ReservationResponse {
	resp := &dto.ReservationResponse{
		ID:       r.ID.String(),
		CheckIn:  formatTime(r.CheckIn),
		CheckOut: formatTime(r.CheckOut),
		Services: make([]dto.ServiceResponse, 0, len(r.Services)),
	}
	if r.Client != nil {
		resp.Client = &dto.ClientResponse{ID: r.Client.ID.String(), Name: r.Client.Name, Email: r.Client.Email}
	}
	if r.Room != nil {
		resp.Room = &dto.RoomResponse{
			ID:     r.Room.ID.String(),
			Number: r.Room.Number,
			Type:   r.Room.Type,
			Price:  r.Room.Price,
		}
		if r.Room.Hotel != nil {
			resp.Room.Hotel = &dto.HotelResponse{ID: r.Room.Hotel.ID.String(), Name: r.Room.Hotel.Name, City: r.Room.Hotel.City}
		}
	}
	for _, svc := range r.Services {
		resp.Services = append(resp.Services, dto.ServiceResponse{ID: svc.ID.String(), Name: svc.Name, Price: svc.Price})
	}
	return resp
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
