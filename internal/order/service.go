package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ms-marketplace/internal/inventory"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/pricing"
	"ms-marketplace/internal/utils"

	"github.com/google/uuid"
)

var (
	// ErrRefundWindowClosed is returned when a refund is requested fewer
	// than the window's days before the event. Not retriable.
	ErrRefundWindowClosed = errors.New("refund window closed")

	// ErrAlreadyUsed is returned when a ticket or order has already been
	// checked in.
	ErrAlreadyUsed = errors.New("ticket already used")

	// ErrInvalidTransition is returned for any state-machine violation.
	ErrInvalidTransition = errors.New("invalid order state transition")

	// ErrReservationExpired is returned when payment confirmation arrives
	// after the hold TTL lapsed.
	ErrReservationExpired = errors.New("reservation expired")
)

type DBLayer interface {
	CreateOrder(order *models.Order) error
	GetOrderByID(id string) (*models.Order, error)
	UpdateOrder(order *models.Order) error
	ListExpiredReservations(cutoff time.Time) ([]models.Order, error)
	GetOrdersByBuyer(buyerID string) ([]models.Order, error)
	CreateBuyer(buyer *models.Buyer) error
	GetEventByID(id string) (*models.Event, error)
	GetTicketTypeByID(id string) (*models.TicketType, error)
	GetBatchByID(id string) (*models.TicketBatch, error)
}

// Ledger is the inventory boundary; the order service never touches
// availability counters itself.
type Ledger interface {
	Reserve(ctx context.Context, eventID, ticketTypeID string, quantity int, orderID string) (*inventory.Reservation, error)
	Release(ctx context.Context, res *inventory.Reservation) error
	ClearHold(orderID string) error
}

// TicketIssuer mints admission tickets once payment is confirmed.
type TicketIssuer interface {
	IssueTickets(order *models.Order) ([]models.Ticket, error)
}

type KafkaPublisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderConfirmed(order models.Order) error
	PublishOrderCancelled(order models.Order) error
	PublishOrderRefunded(order models.Order) error
}

type Service struct {
	DB      DBLayer
	Ledger  Ledger
	Tickets TicketIssuer
	Kafka   KafkaPublisher
	Pricing *pricing.Engine
	Logger  *logger.Logger

	RefundWindowDays int
	HoldTTL          time.Duration
}

func NewService(db DBLayer, ledger Ledger, tickets TicketIssuer, kafka KafkaPublisher,
	engine *pricing.Engine, log *logger.Logger, refundWindowDays int, holdTTL time.Duration) *Service {
	return &Service{
		DB:               db,
		Ledger:           ledger,
		Tickets:          tickets,
		Kafka:            kafka,
		Pricing:          engine,
		Logger:           log,
		RefundWindowDays: refundWindowDays,
		HoldTTL:          holdTTL,
	}
}

// PlaceOrder reserves inventory and creates a Reserved order carrying the
// price snapshot. Batch prices move as lots roll over, so the quote is
// resolved against the batch the ledger actually took.
func (s *Service) PlaceOrder(ctx context.Context, eventID, ticketTypeID string, req models.ReserveRequest) (*models.Order, error) {
	if req.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	if req.Buyer != nil && req.Buyer.Channel != "" && !models.ValidChannel(req.Buyer.Channel) {
		return nil, fmt.Errorf("unknown acquisition channel %q", req.Buyer.Channel)
	}

	event, err := s.DB.GetEventByID(eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if !event.PubliclyVisible() {
		return nil, fmt.Errorf("event %s is not open for sale", eventID)
	}

	orderID := utils.GenerateOrderID()

	reservation, err := s.Ledger.Reserve(ctx, eventID, ticketTypeID, req.Quantity, orderID)
	if err != nil {
		return nil, err
	}

	// Resolve the unit price from what was actually reserved. Any failure
	// past this point must hand the inventory back.
	unitPrice, err := s.quoteUnitPrice(event, reservation, req.HalfPrice)
	if err != nil {
		s.rollbackReservation(ctx, reservation, orderID)
		return nil, err
	}
	quote := s.Pricing.OrderTotal(unitPrice, req.Quantity)

	buyerID := ""
	if req.Buyer != nil {
		buyer := *req.Buyer
		if buyer.ID == "" {
			buyer.ID = uuid.NewString()
		}
		if buyer.Channel == "" {
			buyer.Channel = models.ChannelDesktop
		}
		buyer.CreatedAt = time.Now()
		if err := s.DB.CreateBuyer(&buyer); err != nil {
			s.rollbackReservation(ctx, reservation, orderID)
			return nil, fmt.Errorf("failed to record buyer: %w", err)
		}
		buyerID = buyer.ID
	}

	now := time.Now()
	order := &models.Order{
		OrderID:         orderID,
		EventID:         eventID,
		TicketTypeID:    ticketTypeID,
		BatchID:         reservation.BatchID,
		BuyerID:         buyerID,
		Quantity:        req.Quantity,
		UnitPriceCents:  quote.UnitPriceCents,
		ServiceFeeCents: quote.ServiceFeeCents,
		TotalCents:      quote.TotalCents,
		HalfPrice:       req.HalfPrice,
		Status:          models.OrderStatusReserved,
		RefundStatus:    models.RefundStatusNone,
		ReservedAt:      now,
		CreatedAt:       now,
	}

	if err := s.DB.CreateOrder(order); err != nil {
		s.rollbackReservation(ctx, reservation, orderID)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.Kafka.PublishOrderCreated(*order); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "order-created", err.Error())
	}

	s.Logger.LogOrder("RESERVED", orderID, fmt.Sprintf("%d x %s = %s",
		req.Quantity, pricing.FormatCents(quote.UnitPriceCents), pricing.FormatCents(quote.TotalCents)))
	return order, nil
}

func (s *Service) quoteUnitPrice(event *models.Event, reservation *inventory.Reservation, halfPrice bool) (int64, error) {
	var ticketType *models.TicketType
	var batch *models.TicketBatch
	var err error

	if reservation.TicketTypeID != "" {
		ticketType, err = s.DB.GetTicketTypeByID(reservation.TicketTypeID)
		if err != nil {
			return 0, fmt.Errorf("ticket type %s not found: %w", reservation.TicketTypeID, err)
		}
	}
	if reservation.BatchID != "" {
		batch, err = s.DB.GetBatchByID(reservation.BatchID)
		if err != nil {
			return 0, fmt.Errorf("batch %s not found: %w", reservation.BatchID, err)
		}
	}
	return s.Pricing.UnitPrice(event, ticketType, batch, halfPrice)
}

func (s *Service) rollbackReservation(ctx context.Context, reservation *inventory.Reservation, orderID string) {
	if err := s.Ledger.Release(ctx, reservation); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("rollback release failed for order %s: %v", orderID, err))
	}
	if err := s.Ledger.ClearHold(orderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to clear hold for order %s: %v", orderID, err))
	}
}

func (s *Service) GetOrder(id string) (*models.Order, error) {
	return s.DB.GetOrderByID(id)
}

func (s *Service) GetOrdersByBuyer(buyerID string) ([]models.Order, error) {
	return s.DB.GetOrdersByBuyer(buyerID)
}

// ConfirmPayment moves Reserved → Confirmed and issues the tickets.
// Inventory was already taken at reservation time.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusReserved {
		return nil, fmt.Errorf("cannot confirm order in state %s: %w", order.Status, ErrInvalidTransition)
	}
	if time.Since(order.ReservedAt) > s.HoldTTL {
		return nil, fmt.Errorf("order %s reserved at %s: %w",
			orderID, order.ReservedAt.Format(time.RFC3339), ErrReservationExpired)
	}

	order.Status = models.OrderStatusConfirmed
	order.ConfirmedAt = time.Now()
	if err := s.DB.UpdateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to confirm order %s: %w", orderID, err)
	}

	if _, err := s.Tickets.IssueTickets(order); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("ticket issuance failed for order %s: %v", orderID, err))
	}

	if err := s.Ledger.ClearHold(orderID); err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("failed to clear hold for order %s: %v", orderID, err))
	}

	if err := s.Kafka.PublishOrderConfirmed(*order); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "order-confirmed", err.Error())
	}

	s.Logger.LogOrder("CONFIRMED", orderID, "payment confirmed, tickets issued")
	return order, nil
}

// CancelOrder lets a buyer abandon a reservation before payment.
func (s *Service) CancelOrder(ctx context.Context, orderID string) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusReserved {
		return fmt.Errorf("cannot cancel order in state %s: %w", order.Status, ErrInvalidTransition)
	}

	if err := s.releaseOrderInventory(ctx, order); err != nil {
		return err
	}

	order.Status = models.OrderStatusCancelled
	if err := s.DB.UpdateOrder(order); err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}

	if err := s.Kafka.PublishOrderCancelled(*order); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "order-cancelled", err.Error())
	}

	s.Logger.LogOrder("CANCELLED", orderID, "reservation released")
	return nil
}

// DaysUntilEvent is ceil((eventDate − now) / 1 day); the refund boundary is
// inclusive at exactly the window.
func DaysUntilEvent(eventDate, now time.Time) int {
	return int(math.Ceil(eventDate.Sub(now).Hours() / 24))
}

// RequestRefund moves Confirmed → RefundRequested when the event is at least
// RefundWindowDays away.
func (s *Service) RequestRefund(orderID string, now time.Time) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusConfirmed || order.RefundStatus != models.RefundStatusNone {
		return nil, fmt.Errorf("cannot request refund for order in state %s/%s: %w",
			order.Status, order.RefundStatus, ErrInvalidTransition)
	}

	event, err := s.DB.GetEventByID(order.EventID)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", order.EventID, err)
	}

	days := DaysUntilEvent(event.Date, now)
	if days < s.RefundWindowDays {
		return nil, fmt.Errorf("%d day(s) remaining, refunds close at day %d: %w",
			days, s.RefundWindowDays, ErrRefundWindowClosed)
	}

	order.Status = models.OrderStatusRefundRequested
	order.RefundStatus = models.RefundStatusRequested
	order.RefundRequestedAt = now
	if err := s.DB.UpdateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to request refund for order %s: %w", orderID, err)
	}

	s.Logger.LogOrder("REFUND_REQUESTED", orderID, fmt.Sprintf("%d day(s) before event", days))
	return order, nil
}

// ResolveRefund moves RefundRequested → RefundApproved or RefundRejected.
// Approval releases inventory in one ledger transaction and emits the refund
// amount (total minus the processing fee) for the payment collaborator.
func (s *Service) ResolveRefund(ctx context.Context, orderID string, approve bool) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.Status != models.OrderStatusRefundRequested {
		return nil, fmt.Errorf("cannot resolve refund for order in state %s: %w", order.Status, ErrInvalidTransition)
	}

	if !approve {
		order.Status = models.OrderStatusRefundRejected
		order.RefundStatus = models.RefundStatusRejected
		if err := s.DB.UpdateOrder(order); err != nil {
			return nil, fmt.Errorf("failed to reject refund for order %s: %w", orderID, err)
		}
		s.Logger.LogOrder("REFUND_REJECTED", orderID, "refund request denied")
		return order, nil
	}

	// Inventory first: if the release fails the order stays requested and
	// the resolution can be retried. The ledger guarantees the cascade is
	// all-or-nothing.
	if err := s.releaseOrderInventory(ctx, order); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusRefundApproved
	order.RefundStatus = models.RefundStatusApproved
	order.RefundAmountCents = s.Pricing.RefundAmount(order.TotalCents)
	if err := s.DB.UpdateOrder(order); err != nil {
		return nil, fmt.Errorf("failed to approve refund for order %s: %w", orderID, err)
	}

	if err := s.Kafka.PublishOrderRefunded(*order); err != nil {
		s.Logger.LogKafka("PUBLISH_FAILED", "order-refunded", err.Error())
	}

	s.Logger.LogOrder("REFUND_APPROVED", orderID,
		fmt.Sprintf("refunding %s of %s", pricing.FormatCents(order.RefundAmountCents), pricing.FormatCents(order.TotalCents)))
	return order, nil
}

func (s *Service) releaseOrderInventory(ctx context.Context, order *models.Order) error {
	reservation := &inventory.Reservation{
		EventID:      order.EventID,
		TicketTypeID: order.TicketTypeID,
		BatchID:      order.BatchID,
		Quantity:     order.Quantity,
	}
	if err := s.Ledger.Release(ctx, reservation); err != nil {
		return fmt.Errorf("failed to release inventory for order %s: %w", order.OrderID, err)
	}
	return nil
}

// ExpireStaleReservations releases inventory held by reservations that were
// never confirmed within the hold TTL.
func (s *Service) ExpireStaleReservations(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.DB.ListExpiredReservations(now.Add(-s.HoldTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to list expired reservations: %w", err)
	}

	expired := 0
	for i := range stale {
		order := stale[i]
		if err := s.releaseOrderInventory(ctx, &order); err != nil {
			s.Logger.Error("ORDER", err.Error())
			continue
		}
		order.Status = models.OrderStatusExpired
		if err := s.DB.UpdateOrder(&order); err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("failed to expire order %s: %v", order.OrderID, err))
			continue
		}
		if err := s.Ledger.ClearHold(order.OrderID); err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("failed to clear hold for order %s: %v", order.OrderID, err))
		}
		if err := s.Kafka.PublishOrderCancelled(order); err != nil {
			s.Logger.LogKafka("PUBLISH_FAILED", "order-cancelled", err.Error())
		}
		s.Logger.LogOrder("EXPIRED", order.OrderID, "reservation hold lapsed")
		expired++
	}
	return expired, nil
}

// StartSweeper runs the expiry loop until the context is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Logger.Info("SWEEPER", fmt.Sprintf("reservation sweeper running every %s", interval))
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("SWEEPER", "reservation sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.ExpireStaleReservations(ctx, time.Now()); err != nil {
				s.Logger.Error("SWEEPER", err.Error())
			} else if n > 0 {
				s.Logger.Info("SWEEPER", fmt.Sprintf("expired %d stale reservation(s)", n))
			}
		}
	}
}
