package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-marketplace/internal/models"
	"ms-marketplace/internal/order/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Order)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Buyer)(nil)))

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func TestCreateAndGetOrderKeepsSnapshot(t *testing.T) {
	d := setupTestDB(t)

	order := &models.Order{
		OrderID:         "ord1",
		EventID:         "evt1",
		TicketTypeID:    "tt1",
		BatchID:         "b1",
		Quantity:        3,
		UnitPriceCents:  15000,
		ServiceFeeCents: 4500,
		TotalCents:      49500,
		Status:          models.OrderStatusReserved,
		RefundStatus:    models.RefundStatusNone,
		ReservedAt:      time.Now().Round(time.Second),
		CreatedAt:       time.Now().Round(time.Second),
	}
	require.NoError(t, d.CreateOrder(order))

	got, err := d.GetOrderByID("ord1")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), got.UnitPriceCents)
	assert.Equal(t, int64(4500), got.ServiceFeeCents)
	assert.Equal(t, int64(49500), got.TotalCents)
	assert.Equal(t, "b1", got.BatchID)
}

func TestUpdateOrderNeverTouchesSnapshot(t *testing.T) {
	d := setupTestDB(t)

	order := &models.Order{
		OrderID:    "ord1",
		EventID:    "evt1",
		Quantity:   1,
		TotalCents: 16500,
		Status:     models.OrderStatusReserved,
		ReservedAt: time.Now(),
	}
	require.NoError(t, d.CreateOrder(order))

	// Mutating the snapshot in memory must not leak into the row
	order.Status = models.OrderStatusConfirmed
	order.ConfirmedAt = time.Now().Round(time.Second)
	order.TotalCents = 999
	require.NoError(t, d.UpdateOrder(order))

	got, err := d.GetOrderByID("ord1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	assert.Equal(t, int64(16500), got.TotalCents)
}

func TestListExpiredReservations(t *testing.T) {
	d := setupTestDB(t)
	now := time.Now()

	orders := []*models.Order{
		{OrderID: "stale", EventID: "evt1", Quantity: 1,
			Status: models.OrderStatusReserved, ReservedAt: now.Add(-30 * time.Minute)},
		{OrderID: "fresh", EventID: "evt1", Quantity: 1,
			Status: models.OrderStatusReserved, ReservedAt: now.Add(-5 * time.Minute)},
		{OrderID: "paid", EventID: "evt1", Quantity: 1,
			Status: models.OrderStatusConfirmed, ReservedAt: now.Add(-30 * time.Minute)},
	}
	for _, o := range orders {
		require.NoError(t, d.CreateOrder(o))
	}

	stale, err := d.ListExpiredReservations(now.Add(-15 * time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "stale", stale[0].OrderID)
}

func TestGetOrdersByBuyer(t *testing.T) {
	d := setupTestDB(t)

	buyer := &models.Buyer{ID: "buyer1", Name: "Ana", Channel: models.ChannelMobile, CreatedAt: time.Now()}
	require.NoError(t, d.CreateBuyer(buyer))

	now := time.Now()
	require.NoError(t, d.CreateOrder(&models.Order{
		OrderID: "ord1", EventID: "evt1", BuyerID: "buyer1", Quantity: 1,
		Status: models.OrderStatusConfirmed, CreatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, d.CreateOrder(&models.Order{
		OrderID: "ord2", EventID: "evt1", BuyerID: "buyer1", Quantity: 2,
		Status: models.OrderStatusReserved, CreatedAt: now,
	}))

	history, err := d.GetOrdersByBuyer("buyer1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "ord2", history[0].OrderID)
}
