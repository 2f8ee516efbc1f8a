package pricing_test

import (
	"testing"

	"ms-marketplace/internal/config"
	"ms-marketplace/internal/models"
	"ms-marketplace/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *pricing.Engine {
	return pricing.NewEngine(config.PricingConfig{
		ServiceFeeBps:        1000,
		RefundRetainedBps:    1000,
		DefaultCommissionBps: 500,
	})
}

func TestOrderTotal_PistaScenario(t *testing.T) {
	// 3 x R$150.00 plus the 10% service fee must quote R$495.00
	e := newEngine()

	quote := e.OrderTotal(15000, 3)

	assert.Equal(t, int64(45000), quote.SubtotalCents)
	assert.Equal(t, int64(4500), quote.ServiceFeeCents)
	assert.Equal(t, int64(49500), quote.TotalCents)
	assert.Equal(t, "495.00", pricing.FormatCents(quote.TotalCents))
}

func TestOrderTotal_FeeRoundedOnceAtSubtotal(t *testing.T) {
	e := newEngine()

	// 3 x 33.33 = 99.99, fee = 9.999 -> rounds half-up to 10.00
	quote := e.OrderTotal(3333, 3)

	assert.Equal(t, int64(9999), quote.SubtotalCents)
	assert.Equal(t, int64(1000), quote.ServiceFeeCents)
	assert.Equal(t, int64(10999), quote.TotalCents)
}

func TestUnitPrice_BatchPriceWins(t *testing.T) {
	e := newEngine()
	event := &models.Event{PriceCents: 10000}
	tt := &models.TicketType{PriceCents: 12000}
	batch := &models.TicketBatch{PriceCents: 8000}

	price, err := e.UnitPrice(event, tt, batch, false)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), price)
}

func TestUnitPrice_FallsBackToTypeThenEvent(t *testing.T) {
	e := newEngine()
	event := &models.Event{PriceCents: 10000}
	tt := &models.TicketType{PriceCents: 12000}

	price, err := e.UnitPrice(event, tt, nil, false)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), price)

	price, err = e.UnitPrice(event, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), price)
}

func TestUnitPrice_HalfPrice(t *testing.T) {
	e := newEngine()
	tt := &models.TicketType{PriceCents: 15000, HalfPriceAllowed: true}

	price, err := e.UnitPrice(nil, tt, nil, true)
	require.NoError(t, err)
	assert.Equal(t, int64(7500), price)
	assert.Equal(t, "75.00", pricing.FormatCents(price))
}

func TestUnitPrice_HalfPriceRoundsHalfUp(t *testing.T) {
	e := newEngine()
	tt := &models.TicketType{PriceCents: 9999, HalfPriceAllowed: true}

	price, err := e.UnitPrice(nil, tt, nil, true)
	require.NoError(t, err)
	// 49.995 -> 50.00
	assert.Equal(t, int64(5000), price)
}

func TestUnitPrice_HalfPriceNotAllowed(t *testing.T) {
	e := newEngine()
	tt := &models.TicketType{PriceCents: 15000, HalfPriceAllowed: false}

	_, err := e.UnitPrice(nil, tt, nil, true)
	assert.ErrorIs(t, err, pricing.ErrNotEligible)

	// Half price on a flat-priced event (no ticket type) is never eligible
	_, err = e.UnitPrice(&models.Event{PriceCents: 15000}, nil, nil, true)
	assert.ErrorIs(t, err, pricing.ErrNotEligible)
}

func TestRefundAmount_Is90Percent(t *testing.T) {
	e := newEngine()

	assert.Equal(t, int64(44550), e.RefundAmount(49500))
	assert.Equal(t, int64(90), e.RefundAmount(100))
	// 90% of 99 = 89.1 rounds down to 89
	assert.Equal(t, int64(89), e.RefundAmount(99))
	// 90% of 105 = 94.5: the refund rounds half-up, the buyer gets the cent
	assert.Equal(t, int64(95), e.RefundAmount(105))
}

func TestCommissionSplit_ExactForAllRates(t *testing.T) {
	e := newEngine()
	gross := int64(1234567)

	for bps := int64(0); bps <= 10000; bps += 250 {
		rule := &models.CommissionRule{Category: "music", RateBps: bps}
		commission, net := e.CommissionSplit(gross, rule)
		assert.Equal(t, gross, commission+net, "rate %d bps must split exactly", bps)
		assert.GreaterOrEqual(t, commission, int64(0))
		assert.GreaterOrEqual(t, net, int64(0))
	}
}

func TestCommissionSplit_DefaultRate(t *testing.T) {
	e := newEngine()

	commission, net := e.CommissionSplit(10000, nil)
	assert.Equal(t, int64(500), commission)
	assert.Equal(t, int64(9500), net)
}

func TestCommissionSplit_MinimumCommission(t *testing.T) {
	e := newEngine()
	rule := &models.CommissionRule{Category: "workshop", RateBps: 100, MinCents: 200}

	// 1% of 50.00 is 0.50, floored to the 2.00 minimum
	commission, net := e.CommissionSplit(5000, rule)
	assert.Equal(t, int64(200), commission)
	assert.Equal(t, int64(4800), net)

	// Minimum never pushes the commission past the gross
	commission, net = e.CommissionSplit(150, rule)
	assert.Equal(t, int64(150), commission)
	assert.Equal(t, int64(0), net)
}

func TestParsePrice(t *testing.T) {
	cents, err := pricing.ParsePrice("150.00")
	require.NoError(t, err)
	assert.Equal(t, int64(15000), cents)

	cents, err = pricing.ParsePrice("0.5")
	require.NoError(t, err)
	assert.Equal(t, int64(50), cents)

	_, err = pricing.ParsePrice("1.999")
	assert.Error(t, err)

	_, err = pricing.ParsePrice("abc")
	assert.Error(t, err)
}
