package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrInsufficientInventory is returned when a reservation asks for more
	// tickets than the active batch or counter can supply. Transient: the
	// caller may retry after refreshing availability.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrBusy is returned when the per-type mutex could not be acquired
	// within the configured timeout. Safe to retry with backoff.
	ErrBusy = errors.New("inventory busy, try again")
)

// LockManager is the redis-backed hold store. See inventory/redis.
type LockManager interface {
	AcquireTypeLock(ticketTypeID, token string) (bool, error)
	ReleaseTypeLock(ticketTypeID, token string) error
	PlaceHold(orderID string, ttl time.Duration) error
	HoldExists(orderID string) (bool, error)
	ClearHold(orderID string) error
}

// Ledger is the only component allowed to mutate availability counters.
// Batches are the canonical counter when present; ticket-type and event
// counters are caches updated in the same transaction.
type Ledger struct {
	Bun    *bun.DB
	Locks  LockManager
	Logger *logger.Logger
	cfg    config.ReservationConfig
}

func NewLedger(bunDB *bun.DB, locks LockManager, log *logger.Logger, cfg config.ReservationConfig) *Ledger {
	return &Ledger{Bun: bunDB, Locks: locks, Logger: log, cfg: cfg}
}

// ActiveBatch returns the sellable batch for a ticket type at the given
// instant: the lowest-seq batch whose window contains now and which still has
// availability. Nil when no batch qualifies.
func ActiveBatch(ticketType *models.TicketType, now time.Time) *models.TicketBatch {
	for _, batch := range ticketType.Batches {
		if batch.ActiveWithin(now) {
			return batch
		}
	}
	return nil
}

// Reservation describes what a successful Reserve actually took, so the
// order can snapshot batch and price.
type Reservation struct {
	EventID      string
	TicketTypeID string
	BatchID      string
	Quantity     int
}

// Reserve decrements availability for the given quantity. The decrement
// cascades batch -> type -> event inside one transaction; all three move or
// none do. The per-type mutex prevents overselling under concurrent requests.
func (l *Ledger) Reserve(ctx context.Context, eventID, ticketTypeID string, quantity int, orderID string) (*Reservation, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	lockKey := ticketTypeID
	if lockKey == "" {
		lockKey = eventID // flat-priced event, serialize on the event itself
	}
	token, err := l.acquireLock(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	defer l.releaseLock(lockKey, token)

	batchID := ""
	if ticketTypeID != "" {
		ticketType, err := l.getTicketType(ctx, ticketTypeID)
		if err != nil {
			return nil, fmt.Errorf("ticket type %s not found: %w", ticketTypeID, err)
		}
		// A foreign type would decrement this event's counter while the
		// type's own event keeps its cache, so the cascade must refuse it.
		if ticketType.EventID != eventID {
			return nil, fmt.Errorf("ticket type %s does not belong to event %s", ticketTypeID, eventID)
		}
		if len(ticketType.Batches) > 0 {
			batch := ActiveBatch(ticketType, time.Now())
			if batch == nil {
				return nil, fmt.Errorf("no active batch for type %s: %w", ticketTypeID, ErrInsufficientInventory)
			}
			if quantity > batch.AvailableQuantity {
				return nil, fmt.Errorf("requested %d, batch %s has %d: %w",
					quantity, batch.ID, batch.AvailableQuantity, ErrInsufficientInventory)
			}
			batchID = batch.ID
		}
	}

	if err := l.reserveTx(ctx, eventID, ticketTypeID, batchID, quantity); err != nil {
		return nil, err
	}

	if err := l.Locks.PlaceHold(orderID, l.cfg.HoldTTL); err != nil {
		l.Logger.Warn("INVENTORY", fmt.Sprintf("failed to place hold for order %s: %v", orderID, err))
	}

	l.Logger.LogInventory("RESERVE", lockKey, fmt.Sprintf("order %s took %d (batch=%q)", orderID, quantity, batchID))
	return &Reservation{EventID: eventID, TicketTypeID: ticketTypeID, BatchID: batchID, Quantity: quantity}, nil
}

// Release returns quantity to the counters, used on refund approval, expiry
// and cancellation. Counters are clamped at their totals: overflow indicates
// a reconciliation bug upstream and is logged, not surfaced, so refund
// processing never fails on drift.
func (l *Ledger) Release(ctx context.Context, res *Reservation) error {
	lockKey := res.TicketTypeID
	if lockKey == "" {
		lockKey = res.EventID
	}
	token, err := l.acquireLock(ctx, lockKey)
	if err != nil {
		return err
	}
	defer l.releaseLock(lockKey, token)

	clamped, err := l.releaseTx(ctx, res)
	if err != nil {
		return err
	}
	if clamped {
		l.Logger.Warn("INVENTORY", fmt.Sprintf(
			"release of %d for type %q clamped at total; counters had drifted", res.Quantity, res.TicketTypeID))
	}

	l.Logger.LogInventory("RELEASE", lockKey, fmt.Sprintf("returned %d (batch=%q)", res.Quantity, res.BatchID))
	return nil
}

// ClearHold drops the reservation hold after payment lands, so the sweeper
// never expires a confirmed order.
func (l *Ledger) ClearHold(orderID string) error {
	return l.Locks.ClearHold(orderID)
}

// acquireLock spins on the per-type mutex until LockTimeout, then fails fast.
func (l *Ledger) acquireLock(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.LockTimeout)
	for {
		ok, err := l.Locks.AcquireTypeLock(key, token)
		if err != nil {
			return "", fmt.Errorf("redis lock error: %w", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return "", ErrBusy
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func (l *Ledger) releaseLock(key, token string) {
	if err := l.Locks.ReleaseTypeLock(key, token); err != nil {
		l.Logger.Warn("INVENTORY", fmt.Sprintf("failed to release lock %s: %v", key, err))
	}
}

func (l *Ledger) getTicketType(ctx context.Context, id string) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := l.Bun.NewSelect().
		Model(&ticketType).
		Relation("Batches", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("seq ASC")
		}).
		Where("ticket_type.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

// reserveTx performs the cascading decrement. Each UPDATE is guarded by an
// availability predicate; zero rows affected means someone got there first
// and the whole transaction rolls back.
func (l *Ledger) reserveTx(ctx context.Context, eventID, ticketTypeID, batchID string, quantity int) error {
	return l.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if batchID != "" {
			res, err := tx.NewUpdate().
				Model((*models.TicketBatch)(nil)).
				Set("available_quantity = available_quantity - ?", quantity).
				Where("id = ? AND available_quantity >= ?", batchID, quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			if affected, _ := res.RowsAffected(); affected == 0 {
				return fmt.Errorf("batch %s: %w", batchID, ErrInsufficientInventory)
			}
		}

		if ticketTypeID != "" {
			res, err := tx.NewUpdate().
				Model((*models.TicketType)(nil)).
				Set("available_tickets = available_tickets - ?", quantity).
				Where("id = ? AND available_tickets >= ?", ticketTypeID, quantity).
				Exec(ctx)
			if err != nil {
				return err
			}
			if affected, _ := res.RowsAffected(); affected == 0 {
				return fmt.Errorf("ticket type %s: %w", ticketTypeID, ErrInsufficientInventory)
			}
		}

		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("available_tickets = available_tickets - ?", quantity).
			Where("id = ? AND available_tickets >= ?", eventID, quantity).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return fmt.Errorf("event %s: %w", eventID, ErrInsufficientInventory)
		}
		return nil
	})
}

// releaseTx increments the counters, clamping each at its total.
func (l *Ledger) releaseTx(ctx context.Context, res *Reservation) (clamped bool, err error) {
	err = l.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if res.BatchID != "" {
			var batch models.TicketBatch
			if err := tx.NewSelect().Model(&batch).Where("id = ?", res.BatchID).Scan(ctx); err != nil {
				return err
			}
			next := batch.AvailableQuantity + res.Quantity
			if next > batch.Quantity {
				next = batch.Quantity
				clamped = true
			}
			if _, err := tx.NewUpdate().
				Model((*models.TicketBatch)(nil)).
				Set("available_quantity = ?", next).
				Where("id = ?", res.BatchID).
				Exec(ctx); err != nil {
				return err
			}
		}

		if res.TicketTypeID != "" {
			var ticketType models.TicketType
			if err := tx.NewSelect().Model(&ticketType).Where("id = ?", res.TicketTypeID).Scan(ctx); err != nil {
				return err
			}
			next := ticketType.AvailableTickets + res.Quantity
			if next > ticketType.TotalTickets {
				next = ticketType.TotalTickets
				clamped = true
			}
			if _, err := tx.NewUpdate().
				Model((*models.TicketType)(nil)).
				Set("available_tickets = ?", next).
				Where("id = ?", res.TicketTypeID).
				Exec(ctx); err != nil {
				return err
			}
		}

		var event models.Event
		if err := tx.NewSelect().Model(&event).Where("id = ?", res.EventID).Scan(ctx); err != nil {
			return err
		}
		next := event.AvailableTicket + res.Quantity
		if next > event.TotalTickets {
			next = event.TotalTickets
			clamped = true
		}
		_, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("available_tickets = ?", next).
			Where("id = ?", res.EventID).
			Exec(ctx)
		return err
	})
	return clamped, err
}
