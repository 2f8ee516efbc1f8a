package inventory_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/inventory"
	invredis "ms-marketplace/internal/inventory/redis"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupLedger(t *testing.T) (*inventory.Ledger, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	require.NoError(t, bunDB.ResetModel(ctx, (*models.Event)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.TicketType)(nil)))
	require.NoError(t, bunDB.ResetModel(ctx, (*models.TicketBatch)(nil)))

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	holds := invredis.NewHolds(client)

	cfg := config.ReservationConfig{
		HoldTTL:     15 * time.Minute,
		LockTimeout: 500 * time.Millisecond,
	}
	ledger := inventory.NewLedger(bunDB, holds, logger.NewLogger(), cfg)

	t.Cleanup(func() {
		client.Close()
		bunDB.Close()
	})
	return ledger, bunDB
}

func seedCatalog(t *testing.T, bunDB *bun.DB) {
	t.Helper()
	ctx := context.Background()

	event := &models.Event{
		ID: "evt1", Title: "Open Air", Date: time.Now().AddDate(0, 1, 0),
		Location: "SP", TotalTickets: 100, AvailableTicket: 100,
		Status: models.EventStatusApproved, Visible: true,
	}
	_, err := bunDB.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	tt := &models.TicketType{
		ID: "tt1", EventID: "evt1", Name: "Pista",
		PriceCents: 15000, TotalTickets: 100, AvailableTickets: 100,
	}
	_, err = bunDB.NewInsert().Model(tt).Exec(ctx)
	require.NoError(t, err)

	now := time.Now()
	batches := []models.TicketBatch{
		{ID: "b1", TicketTypeID: "tt1", Seq: 1, Name: "Lote 1", PriceCents: 12000,
			Quantity: 2, AvailableQuantity: 2, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(24 * time.Hour)},
		{ID: "b2", TicketTypeID: "tt1", Seq: 2, Name: "Lote 2", PriceCents: 15000,
			Quantity: 98, AvailableQuantity: 98, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(24 * time.Hour)},
	}
	_, err = bunDB.NewInsert().Model(&batches).Exec(ctx)
	require.NoError(t, err)
}

func counters(t *testing.T, bunDB *bun.DB) (batch1, batch2, typeAvail, eventAvail int) {
	t.Helper()
	ctx := context.Background()

	var b1, b2 models.TicketBatch
	require.NoError(t, bunDB.NewSelect().Model(&b1).Where("id = ?", "b1").Scan(ctx))
	require.NoError(t, bunDB.NewSelect().Model(&b2).Where("id = ?", "b2").Scan(ctx))
	var tt models.TicketType
	require.NoError(t, bunDB.NewSelect().Model(&tt).Where("id = ?", "tt1").Scan(ctx))
	var ev models.Event
	require.NoError(t, bunDB.NewSelect().Model(&ev).Where("id = ?", "evt1").Scan(ctx))

	return b1.AvailableQuantity, b2.AvailableQuantity, tt.AvailableTickets, ev.AvailableTicket
}

func TestReserveCascadesAllCounters(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)

	res, err := ledger.Reserve(context.Background(), "evt1", "tt1", 2, "ord1")
	require.NoError(t, err)
	assert.Equal(t, "b1", res.BatchID)

	b1, b2, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 0, b1)
	assert.Equal(t, 98, b2)
	assert.Equal(t, 98, typeAvail)
	assert.Equal(t, 98, eventAvail)
}

func TestReserveRollsToNextBatchWhenExhausted(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, "evt1", "tt1", 2, "ord1")
	require.NoError(t, err)

	// First batch is sold out, the next reservation must land on batch 2
	res, err := ledger.Reserve(ctx, "evt1", "tt1", 1, "ord2")
	require.NoError(t, err)
	assert.Equal(t, "b2", res.BatchID)

	_, b2, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 97, b2)
	assert.Equal(t, 97, typeAvail)
	assert.Equal(t, 97, eventAvail)
}

func TestReserveMoreThanBatchFails(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)

	// Batch 1 only has 2 left; asking for 3 must not touch any counter
	_, err := ledger.Reserve(context.Background(), "evt1", "tt1", 3, "ord1")
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientInventory)

	b1, b2, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 2, b1)
	assert.Equal(t, 98, b2)
	assert.Equal(t, 100, typeAvail)
	assert.Equal(t, 100, eventAvail)
}

func TestReserveRejectsForeignTicketType(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)
	ctx := context.Background()

	other := &models.Event{
		ID: "evt2", Title: "Other", Date: time.Now().AddDate(0, 1, 0), Location: "RJ",
		TotalTickets: 50, AvailableTicket: 50, Status: models.EventStatusApproved, Visible: true,
	}
	_, err := bunDB.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)

	// tt1 belongs to evt1; reserving it against evt2 would leave evt1's
	// cached counter stale
	_, err = ledger.Reserve(ctx, "evt2", "tt1", 1, "ord1")
	require.Error(t, err)

	b1, b2, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 2, b1)
	assert.Equal(t, 98, b2)
	assert.Equal(t, 100, typeAvail)
	assert.Equal(t, 100, eventAvail)

	var ev models.Event
	require.NoError(t, bunDB.NewSelect().Model(&ev).Where("id = ?", "evt2").Scan(ctx))
	assert.Equal(t, 50, ev.AvailableTicket)
}

func TestReserveFlatPricedEvent(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	ctx := context.Background()

	event := &models.Event{
		ID: "evt2", Title: "Flat", Date: time.Now().AddDate(0, 1, 0), Location: "SP",
		PriceCents: 5000, TotalTickets: 10, AvailableTicket: 10,
		Status: models.EventStatusApproved, Visible: true,
	}
	_, err := bunDB.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)

	res, err := ledger.Reserve(ctx, "evt2", "", 4, "ord1")
	require.NoError(t, err)
	assert.Empty(t, res.BatchID)

	var ev models.Event
	require.NoError(t, bunDB.NewSelect().Model(&ev).Where("id = ?", "evt2").Scan(ctx))
	assert.Equal(t, 6, ev.AvailableTicket)
}

func TestReleaseRestoresCounters(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)
	ctx := context.Background()

	res, err := ledger.Reserve(ctx, "evt1", "tt1", 2, "ord1")
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, res))

	b1, b2, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 2, b1)
	assert.Equal(t, 98, b2)
	assert.Equal(t, 100, typeAvail)
	assert.Equal(t, 100, eventAvail)
}

func TestReleaseClampsAtTotals(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)
	ctx := context.Background()

	// Releasing without a prior reserve would overflow; counters stay at total
	err := ledger.Release(ctx, &inventory.Reservation{
		EventID: "evt1", TicketTypeID: "tt1", BatchID: "b1", Quantity: 5,
	})
	require.NoError(t, err)

	b1, _, typeAvail, eventAvail := counters(t, bunDB)
	assert.Equal(t, 2, b1)
	assert.Equal(t, 100, typeAvail)
	assert.Equal(t, 100, eventAvail)
}

func TestReserveSkipsExpiredBatchWindow(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	ctx := context.Background()

	event := &models.Event{
		ID: "evt1", Title: "Open Air", Date: time.Now().AddDate(0, 1, 0), Location: "SP",
		TotalTickets: 50, AvailableTicket: 50, Status: models.EventStatusApproved, Visible: true,
	}
	_, err := bunDB.NewInsert().Model(event).Exec(ctx)
	require.NoError(t, err)
	tt := &models.TicketType{ID: "tt1", EventID: "evt1", Name: "Pista",
		PriceCents: 15000, TotalTickets: 50, AvailableTickets: 50}
	_, err = bunDB.NewInsert().Model(tt).Exec(ctx)
	require.NoError(t, err)

	now := time.Now()
	batches := []models.TicketBatch{
		{ID: "b1", TicketTypeID: "tt1", Seq: 1, PriceCents: 12000, Quantity: 25,
			AvailableQuantity: 25, StartsAt: now.Add(-48 * time.Hour), EndsAt: now.Add(-24 * time.Hour)},
		{ID: "b2", TicketTypeID: "tt1", Seq: 2, PriceCents: 15000, Quantity: 25,
			AvailableQuantity: 25, StartsAt: now.Add(-time.Hour), EndsAt: now.Add(24 * time.Hour)},
	}
	_, err = bunDB.NewInsert().Model(&batches).Exec(ctx)
	require.NoError(t, err)

	res, err := ledger.Reserve(ctx, "evt1", "tt1", 1, "ord1")
	require.NoError(t, err)
	assert.Equal(t, "b2", res.BatchID)
}

func TestReservePlacesHold(t *testing.T) {
	ledger, bunDB := setupLedger(t)
	seedCatalog(t, bunDB)

	_, err := ledger.Reserve(context.Background(), "evt1", "tt1", 1, "ord1")
	require.NoError(t, err)

	exists, err := ledger.Locks.HoldExists("ord1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, ledger.ClearHold("ord1"))
	exists, err = ledger.Locks.HoldExists("ord1")
	require.NoError(t, err)
	assert.False(t, exists)
}
