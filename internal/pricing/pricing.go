// Package pricing computes seat prices from a showtime's base price
// and the structural attributes of the seats.
package pricing

import (
	"math"

	"cinereserve/internal/domain"
)

// round2 rounds half-up to two decimal places. Prices are never
// negative, so the floor form is exact.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Quote prices each seat and totals the set.
//
// Per-seat price is (base + surcharge) scaled by the seat's row
// multiplier, rounded to cents per seat. Rounding happens before the
// sum, so the total is always the exact sum of the displayed per-seat
// prices.
func Quote(basePrice, surcharge float64, seats []domain.Seat) domain.Quote {
	q := domain.Quote{PerSeat: make(map[domain.SeatID]float64, len(seats))}

	for _, s := range seats {
		price := round2((basePrice + surcharge) * s.Multiplier)
		q.PerSeat[s.ID] = price
		q.Total = round2(q.Total + price)
	}

	return q
}

// SeatPrice prices a single seat, for display listings.
func SeatPrice(basePrice, surcharge float64, seat domain.Seat) float64 {
	return round2((basePrice + surcharge) * seat.Multiplier)
}
