package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/repository/memory"
	"cinereserve/internal/service"
	"cinereserve/internal/service/catalog"
	"cinereserve/internal/service/query"
	"cinereserve/internal/service/reservation"
	"cinereserve/internal/service/ticketing"
	"cinereserve/internal/session"
	"cinereserve/internal/ticket"
)

// The full sale path against the in-memory store: define a room,
// schedule a showtime, hold a seat, lose a competing hold, confirm,
// issue, and verify the ticket at the gate.
func TestFullSaleFlow(t *testing.T) {
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := memory.NewStore()
	registry := inventory.NewRegistry()
	sessions := session.NewManager(registry)

	svcs := service.NewServices(store, store, registry, sessions, nil, nil, nil, service.Config{
		Reservation: reservation.Config{Clock: clock},
		Ticketing:   ticketing.Config{Clock: clock},
		Query:       query.Config{Clock: clock},
		Catalog:     catalog.Config{HoldTTL: 5 * time.Minute},
	})

	// Room with an inactive premium row that must contribute no seats.
	roomID, err := svcs.Catalog.CreateRoom(ctx, "Centro", "Sala 1", []domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 5, Active: true},
		{Letter: "B", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 5, Active: true},
		{Letter: "C", Number: 3, Type: domain.SeatPremium, Multiplier: 2.0, SeatCount: 3, Active: false},
	})
	require.NoError(t, err)

	showtimeID, err := svcs.Catalog.CreateShowtime(ctx, roomID, "Heat", now.Add(2*time.Hour), 10.00, 0)
	require.NoError(t, err)

	counts, err := svcs.Query.Availability(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShowtimeCounts{Free: 10, Total: 10}, *counts)

	// First buyer holds A1; a second buyer racing for it loses with
	// exactly that seat named.
	sess, err := svcs.Reservation.OpenHold(ctx, showtimeID, []domain.SeatID{"A1"}, "")
	require.NoError(t, err)

	_, err = svcs.Reservation.OpenHold(ctx, showtimeID, []domain.SeatID{"A1"}, "")
	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []domain.SeatID{"A1"}, unavailable.SeatIDs)

	quote, err := svcs.Ticketing.Quote(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, 10.00, quote.Total)

	require.NoError(t, svcs.Reservation.Confirm(ctx, sess.ID()))

	tk, err := svcs.Ticketing.Issue(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, []domain.SeatID{"A1"}, tk.Seats)
	assert.Equal(t, 10.00, tk.Total)
	assert.True(t, ticket.Verify(tk.QRPayload, tk.Code, showtimeID, tk.Seats))

	// Issuing twice surfaces the existing code instead of a new sale.
	_, err = svcs.Ticketing.Issue(ctx, sess.ID())
	var issued ticket.AlreadyIssuedError
	require.ErrorAs(t, err, &issued)
	assert.Equal(t, tk.Code, issued.Code)

	// Gate check round trip through the stored ticket.
	valid, err := svcs.Ticketing.VerifyPayload(ctx, tk.Code, tk.QRPayload)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svcs.Ticketing.VerifyPayload(ctx, tk.Code, tk.QRPayload+"x")
	require.NoError(t, err)
	assert.False(t, valid)

	counts, err = svcs.Query.Availability(ctx, showtimeID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShowtimeCounts{Free: 9, Sold: 1, Total: 10}, *counts)

	seats, err := svcs.Query.Seats(ctx, showtimeID, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, seats, 10)
	assert.Equal(t, domain.SeatID("A1"), seats[0].ID)
	assert.Equal(t, domain.SeatSold, seats[0].State.Status)
	assert.Equal(t, 10.00, seats[0].Price)
	assert.Equal(t, 15.00, seats[9].Price, "VIP row carries the 1.5 multiplier")

	free, err := svcs.Query.Seats(ctx, showtimeID, true, 0, 0)
	require.NoError(t, err)
	assert.Len(t, free, 9)

	// The audit trail saw the whole session lifecycle.
	events := store.SessionEvents()
	require.Len(t, events, 2)
	assert.Equal(t, domain.SessionActive, events[0].Status)
	assert.Equal(t, domain.SessionConfirmed, events[1].Status)
}

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()

	store := memory.NewStore()
	registry := inventory.NewRegistry()
	sessions := session.NewManager(registry)

	svcs := service.NewServices(store, store, registry, sessions, nil, nil, nil, service.Config{})

	_, err := svcs.Catalog.CreateRoom(ctx, "Centro", "Sala 2", []domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 3, Active: false},
	})
	require.ErrorIs(t, err, catalog.ErrNoActiveRows)

	_, err = svcs.Catalog.CreateShowtime(ctx, 99, "Heat", time.Now(), 10.00, 0)
	require.ErrorIs(t, err, catalog.ErrRoomNotFound)
}
