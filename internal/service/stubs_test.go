package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hotelbilling/internal/model"
	"hotelbilling/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory InvoiceRepository stub ─────────────────────────────────────────
// Enforces the reservation_id uniqueness the real table has.

type stubInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*model.Invoice
	// blindExists makes ExistsForReservation always answer false, as if a concurrent request
	// passed the pre-check before the other insert landed.
	blindExists bool
	failSweep   error
	failDelete  error
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *stubInvoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.ReservationID == inv.ReservationID {
			return gorm.ErrDuplicatedKey
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	cloned := *inv
	r.invoices[inv.ID] = &cloned
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *inv
	return &cloned, nil
}

func (r *stubInvoiceRepo) FindByReservationID(_ context.Context, reservationID uuid.UUID) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ReservationID == reservationID {
			cloned := *inv
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubInvoiceRepo) ExistsForReservation(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	if r.blindExists {
		return false, nil
	}
	_, err := r.FindByReservationID(ctx, reservationID)
	return err == nil, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, status model.InvoiceStatus) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Invoice
	for _, inv := range r.invoices {
		if status == "" || inv.Status == status {
			out = append(out, *inv)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *stubInvoiceRepo) ListByReservationIDs(_ context.Context, ids []uuid.UUID, status model.InvoiceStatus) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Invoice
	for _, inv := range r.invoices {
		if want[inv.ReservationID] && (status == "" || inv.Status == status) {
			out = append(out, *inv)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *stubInvoiceRepo) Update(_ context.Context, id uuid.UUID, changes repository.InvoiceChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if changes.Status != nil {
		inv.Status = *changes.Status
	}
	if changes.PaymentID != nil {
		pid := *changes.PaymentID
		inv.PaymentID = &pid
	}
	return nil
}

func (r *stubInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if r.failDelete != nil {
		return r.failDelete
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, id)
	return nil
}

func (r *stubInvoiceRepo) Sweep(_ context.Context, batchSize int, fn func([]model.Invoice) error) error {
	if r.failSweep != nil {
		return r.failSweep
	}
	r.mu.Lock()
	all := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		all = append(all, *inv)
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	for start := 0; start < len(all); start += batchSize {
		end := min(start+batchSize, len(all))
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubInvoiceRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invoices)
}

func sortNewestFirst(invs []model.Invoice) {
	sort.Slice(invs, func(i, j int) bool { return invs[i].IssuedAt.After(invs[j].IssuedAt) })
}

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// ── In-memory ReservationReader stub ─────────────────────────────────────────

type stubReservationReader struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*model.Reservation
	fail         error
}

func newStubReservationReader() *stubReservationReader {
	return &stubReservationReader{reservations: make(map[uuid.UUID]*model.Reservation)}
}

func (r *stubReservationReader) add(res *model.Reservation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = res
}

func (r *stubReservationReader) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reservations, id)
}

func (r *stubReservationReader) FindByID(_ context.Context, id uuid.UUID) (*model.Reservation, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return res, nil
}

func (r *stubReservationReader) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Reservation, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uuid.UUID]*model.Reservation)
	for _, id := range ids {
		if res, ok := r.reservations[id]; ok {
			out[id] = res
		}
	}
	return out, nil
}

func (r *stubReservationReader) ListByClientID(_ context.Context, clientID uuid.UUID) ([]model.Reservation, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Reservation
	for _, res := range r.reservations {
		if res.ClientID == clientID {
			out = append(out, *res)
		}
	}
	return out, nil
}

var _ repository.ReservationReader = (*stubReservationReader)(nil)

// ── In-memory PaymentReader stub ─────────────────────────────────────────────

type stubPaymentReader struct {
	payments map[uuid.UUID]*model.Payment
}

func newStubPaymentReader() *stubPaymentReader {
	return &stubPaymentReader{payments: make(map[uuid.UUID]*model.Payment)}
}

func (r *stubPaymentReader) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Payment, error) {
	out := make(map[uuid.UUID]*model.Payment)
	for _, id := range ids {
		if p, ok := r.payments[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

var _ repository.PaymentReader = (*stubPaymentReader)(nil)

var errStorageDown = errors.New("connection refused")

// ── fixtures ─────────────────────────────────────────────────────────────────

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// buildReservation returns a 3-night stay (2024-01-01 → 2024-01-04) in a 100/night room with one
// 20-priced service.
func buildReservation(clientID uuid.UUID) *model.Reservation {
	hotel := &model.Hotel{ID: uuid.New(), Name: "Hotel du Lac", City: "Annecy"}
	room := &model.Room{ID: uuid.New(), HotelID: hotel.ID, Number: "101", Price: decimal.NewFromInt(100), Hotel: hotel}
	client := &model.Client{ID: clientID, Name: "Alice Martin", Email: "alice@example.com"}
	return &model.Reservation{
		ID:       uuid.New(),
		ClientID: clientID,
		RoomID:   room.ID,
		CheckIn:  date(2024, time.January, 1),
		CheckOut: date(2024, time.January, 4),
		Client:   client,
		Room:     room,
		Services: []model.Service{{ID: uuid.New(), Name: "Breakfast", Price: decimal.NewFromInt(20)}},
	}
}
