package repository_test

import (
	"context"
	"testing"
	"time"

	"hotelbilling/internal/model"
	"hotelbilling/internal/repository"
	"hotelbilling/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newInvoice(reservationID uuid.UUID, issuedAt time.Time) *model.Invoice {
	return &model.Invoice{
		ReservationID: reservationID,
		TotalAmount:   decimal.NewFromInt(360),
		DueDate:       issuedAt.Add(7 * 24 * time.Hour),
		IssuedAt:      issuedAt,
	}
}

func TestInvoiceRepository_CreateAssignsDefaults(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	inv := &model.Invoice{ReservationID: uuid.New(), TotalAmount: decimal.RequireFromString("360.00"), DueDate: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, inv))

	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.Equal(t, model.InvoicePending, inv.Status)
	assert.False(t, inv.IssuedAt.IsZero())

	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(360)))
	assert.Equal(t, inv.ReservationID, got.ReservationID)
}

func TestInvoiceRepository_DuplicateReservationRejected(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()
	resID := uuid.New()

	require.NoError(t, repo.Create(ctx, newInvoice(resID, time.Now().UTC())))
	err := repo.Create(ctx, newInvoice(resID, time.Now().UTC()))

	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestInvoiceRepository_FindMissing(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindByReservationID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInvoiceRepository_ExistsForReservation(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()
	resID := uuid.New()

	exists, err := repo.ExistsForReservation(ctx, resID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Create(ctx, newInvoice(resID, time.Now().UTC())))
	exists, err = repo.ExistsForReservation(ctx, resID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInvoiceRepository_ListNewestFirstWithFilter(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	older := newInvoice(uuid.New(), base)
	newer := newInvoice(uuid.New(), base.Add(time.Hour))
	paid := newInvoice(uuid.New(), base.Add(2*time.Hour))
	paid.Status = model.InvoicePaid
	for _, inv := range []*model.Invoice{older, newer, paid} {
		require.NoError(t, repo.Create(ctx, inv))
	}

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, paid.ID, all[0].ID)
	assert.Equal(t, older.ID, all[2].ID)

	pending, err := repo.List(ctx, model.InvoicePending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, newer.ID, pending[0].ID)

	byRes, err := repo.ListByReservationIDs(ctx, []uuid.UUID{older.ReservationID, paid.ReservationID}, model.InvoicePaid)
	require.NoError(t, err)
	require.Len(t, byRes, 1)
	assert.Equal(t, paid.ID, byRes[0].ID)

	none, err := repo.ListByReservationIDs(ctx, nil, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInvoiceRepository_Update(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	inv := newInvoice(uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Create(ctx, inv))

	partial := model.InvoicePartial
	require.NoError(t, repo.Update(ctx, inv.ID, repository.InvoiceChanges{Status: &partial}))
	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePartial, got.Status)
	assert.Nil(t, got.PaymentID)
	assert.True(t, got.TotalAmount.Equal(inv.TotalAmount))

	paid := model.InvoicePaid
	paymentID := uuid.New()
	require.NoError(t, repo.Update(ctx, inv.ID, repository.InvoiceChanges{Status: &paid, PaymentID: &paymentID}))
	got, err = repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoicePaid, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, paymentID, *got.PaymentID)

	err = repo.Update(ctx, uuid.New(), repository.InvoiceChanges{Status: &paid})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestInvoiceRepository_SweepVisitsAllAndToleratesDeletes(t *testing.T) {
	db := testutil.NewSQLite(t)
	repo := repository.NewInvoiceRepository(db)
	ctx := context.Background()

	const n = 7
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(ctx, newInvoice(uuid.New(), time.Now().UTC())))
	}

	seen := map[uuid.UUID]bool{}
	batches := 0
	err := repo.Sweep(ctx, 3, func(batch []model.Invoice) error {
		batches++
		for _, inv := range batch {
			seen[inv.ID] = true
			if err := repo.Delete(ctx, inv.ID); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, n)
	assert.Equal(t, 3, batches)

	left, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestReservationReader_PreloadsRelations(t *testing.T) {
	db := testutil.NewSQLite(t)
	reader := repository.NewReservationReader(db)
	ctx := context.Background()

	res := testutil.SeedReservation(t, db, testutil.DefaultStay())

	got, err := reader.FindByID(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Room)
	require.NotNil(t, got.Room.Hotel)
	require.NotNil(t, got.Client)
	assert.True(t, got.Room.Price.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Hotel du Lac", got.Room.Hotel.Name)
	require.Len(t, got.Services, 1)
	assert.True(t, got.HasStayDates())

	_, err = reader.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReservationReader_FindByIDsAndClient(t *testing.T) {
	db := testutil.NewSQLite(t)
	reader := repository.NewReservationReader(db)
	ctx := context.Background()

	first := testutil.SeedReservation(t, db, testutil.DefaultStay())
	stay := testutil.DefaultStay()
	stay.ClientID = first.ClientID
	second := testutil.SeedReservation(t, db, stay)
	other := testutil.SeedReservation(t, db, testutil.DefaultStay())
	missing := uuid.New()

	found, err := reader.FindByIDs(ctx, []uuid.UUID{first.ID, other.ID, missing})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, first.ID)
	assert.NotContains(t, found, missing)

	mine, err := reader.ListByClientID(ctx, first.ClientID)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, r := range mine {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
}

func TestPaymentReader_FindByIDs(t *testing.T) {
	db := testutil.NewSQLite(t)
	reader := repository.NewPaymentReader(db)
	ctx := context.Background()

	now := time.Now().UTC()
	p := model.Payment{ID: uuid.New(), Amount: decimal.NewFromInt(360), Method: "card", PaidAt: &now}
	require.NoError(t, db.Create(&p).Error)

	found, err := reader.FindByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "card", found[p.ID].Method)

	empty, err := reader.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
