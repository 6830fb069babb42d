package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cinereserve/internal/domain"
	"cinereserve/internal/pricing"
)

func TestQuote(t *testing.T) {
	seats := []domain.Seat{
		{ID: "A1", Type: domain.SeatNormal, Multiplier: 1.0},
		{ID: "B1", Type: domain.SeatVIP, Multiplier: 1.5},
	}

	q := pricing.Quote(10.00, 0, seats)

	assert.Equal(t, 10.00, q.PerSeat["A1"])
	assert.Equal(t, 15.00, q.PerSeat["B1"])
	assert.Equal(t, 25.00, q.Total)
}

func TestQuote_SurchargeBeforeMultiplier(t *testing.T) {
	seats := []domain.Seat{
		{ID: "B1", Type: domain.SeatVIP, Multiplier: 1.5},
	}

	// (10 + 2) * 1.5, not 10*1.5 + 2.
	q := pricing.Quote(10.00, 2.00, seats)

	assert.Equal(t, 18.00, q.PerSeat["B1"])
	assert.Equal(t, 18.00, q.Total)
}

func TestQuote_RoundsHalfUpPerSeat(t *testing.T) {
	seats := []domain.Seat{
		{ID: "A1", Multiplier: 1.5},
		{ID: "A2", Multiplier: 1.5},
	}

	// 3.33 * 1.5 = 4.995 rounds to 5.00 per seat; the total is the
	// sum of the rounded per-seat prices, not the rounded raw sum.
	q := pricing.Quote(3.33, 0, seats)

	assert.Equal(t, 5.00, q.PerSeat["A1"])
	assert.Equal(t, 5.00, q.PerSeat["A2"])
	assert.Equal(t, 10.00, q.Total)
}

func TestQuote_Empty(t *testing.T) {
	q := pricing.Quote(10.00, 0, nil)

	assert.Empty(t, q.PerSeat)
	assert.Zero(t, q.Total)
}

func TestSeatPrice(t *testing.T) {
	seat := domain.Seat{ID: "C1", Type: domain.SeatPremium, Multiplier: 2.0}

	assert.Equal(t, 24.00, pricing.SeatPrice(10.00, 2.00, seat))
}
