package pricing

import (
	"errors"
	"fmt"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/models"
)

// ErrNotEligible is returned when a half-price purchase is requested for a
// ticket type that does not allow it.
var ErrNotEligible = errors.New("half-price not allowed for this ticket type")

// Engine resolves effective unit prices and revenue splits. It is pure: all
// inputs are snapshots, no locking or persistence happens here.
type Engine struct {
	ServiceFeeBps        int64
	RefundRetainedBps    int64
	DefaultCommissionBps int64
}

func NewEngine(cfg config.PricingConfig) *Engine {
	return &Engine{
		ServiceFeeBps:        cfg.ServiceFeeBps,
		RefundRetainedBps:    cfg.RefundRetainedBps,
		DefaultCommissionBps: cfg.DefaultCommissionBps,
	}
}

// Quote is the buyer-facing price breakdown for one order.
type Quote struct {
	UnitPriceCents  int64
	Quantity        int
	SubtotalCents   int64
	ServiceFeeCents int64
	TotalCents      int64
}

// UnitPrice resolves the effective price for one ticket. The active batch
// price wins when batches are configured, then the ticket type's own price,
// then the event's base price for flat-priced events.
func (e *Engine) UnitPrice(event *models.Event, ticketType *models.TicketType, batch *models.TicketBatch, halfPrice bool) (int64, error) {
	var base int64
	switch {
	case batch != nil:
		base = batch.PriceCents
	case ticketType != nil:
		base = ticketType.PriceCents
	case event != nil:
		base = event.PriceCents
	default:
		return 0, fmt.Errorf("no price source provided")
	}

	if halfPrice {
		if ticketType == nil || !ticketType.HalfPriceAllowed {
			return 0, ErrNotEligible
		}
		return HalfOf(base), nil
	}
	return base, nil
}

// OrderTotal computes subtotal, buyer-side service fee and total. The fee is
// rounded once at the subtotal, not per unit.
func (e *Engine) OrderTotal(unitPriceCents int64, quantity int) Quote {
	subtotal := unitPriceCents * int64(quantity)
	fee := ApplyBps(subtotal, e.ServiceFeeBps)
	return Quote{
		UnitPriceCents:  unitPriceCents,
		Quantity:        quantity,
		SubtotalCents:   subtotal,
		ServiceFeeCents: fee,
		TotalCents:      subtotal + fee,
	}
}

// RefundAmount is what the buyer gets back on an approved refund. The
// refundable share is rounded directly, so at half-cent boundaries the
// rounding favors the buyer, not the retained fee.
func (e *Engine) RefundAmount(totalPaidCents int64) int64 {
	return ApplyBps(totalPaidCents, 10000-e.RefundRetainedBps)
}

// CommissionSplit divides gross revenue between platform and organizer.
// commission + organizerNet == gross holds exactly for every rate.
func (e *Engine) CommissionSplit(grossCents int64, rule *models.CommissionRule) (commission, organizerNet int64) {
	rate := e.DefaultCommissionBps
	var minCents int64
	if rule != nil {
		rate = rule.RateBps
		minCents = rule.MinCents
	}
	commission = ApplyBps(grossCents, rate)
	if commission < minCents {
		commission = minCents
	}
	if commission > grossCents {
		commission = grossCents
	}
	return commission, grossCents - commission
}
