package inventory_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/layout"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func testLayout(t *testing.T) *domain.RoomLayout {
	t.Helper()
	l, err := layout.Build([]domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 5, Active: true},
		{Letter: "B", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 5, Active: true},
	})
	require.NoError(t, err)
	return l
}

func newInv(t *testing.T) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.New(1, testLayout(t), 5*time.Minute)
	require.NoError(t, err)
	return inv
}

func TestNew_RejectsEmptyLayout(t *testing.T) {
	_, err := inventory.New(7, domain.NewRoomLayout(nil), time.Minute)

	var empty inventory.EmptyLayoutError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, int64(7), empty.ShowtimeID)
}

func TestHold_AllOrNothing(t *testing.T) {
	inv := newInv(t)
	first := uuid.New()
	second := uuid.New()

	_, err := inv.Hold([]domain.SeatID{"A1"}, first, t0)
	require.NoError(t, err)

	// A1 is taken, so the whole three-seat request must fail and A2/A3
	// must stay free.
	_, err = inv.Hold([]domain.SeatID{"A1", "A2", "A3"}, second, t0)

	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []domain.SeatID{"A1"}, unavailable.SeatIDs)

	counts := inv.Counts(t0)
	assert.Equal(t, 9, counts.Free)
	assert.Equal(t, 1, counts.Held)
}

func TestHold_UnknownSeats(t *testing.T) {
	inv := newInv(t)

	_, err := inv.Hold([]domain.SeatID{"A1", "Z9"}, uuid.New(), t0)

	var missing inventory.SeatsNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []domain.SeatID{"Z9"}, missing.SeatIDs)

	// The valid seat must not have been claimed.
	assert.Equal(t, 10, inv.Counts(t0).Free)
}

func TestHold_SharedExpiry(t *testing.T) {
	inv := newInv(t)

	expiresAt, err := inv.Hold([]domain.SeatID{"A1", "B3"}, uuid.New(), t0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Minute), expiresAt)

	avail := inv.Availability(t0)
	assert.Equal(t, expiresAt, avail["A1"].ExpiresAt)
	assert.Equal(t, expiresAt, avail["B3"].ExpiresAt)
}

func TestHold_ExpiredHoldIsFree(t *testing.T) {
	inv := newInv(t)
	stale := uuid.New()
	fresh := uuid.New()

	expiresAt, err := inv.Hold([]domain.SeatID{"A1"}, stale, t0)
	require.NoError(t, err)

	// One nanosecond before expiry the hold is still live.
	_, err = inv.Hold([]domain.SeatID{"A1"}, fresh, expiresAt.Add(-time.Nanosecond))
	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)

	// At the expiry instant itself (expiresAt <= now) the seat is
	// lazily reclaimable by a new hold.
	_, err = inv.Hold([]domain.SeatID{"A1"}, fresh, expiresAt)
	require.NoError(t, err)

	st := inv.Availability(expiresAt)["A1"]
	assert.Equal(t, domain.SeatHeld, st.Status)
	assert.Equal(t, fresh, st.SessionID)
}

func TestHold_ConcurrentSingleWinner(t *testing.T) {
	inv := newInv(t)

	const racers = 32
	wins := make(chan uuid.UUID, racers)

	var g errgroup.Group
	for i := 0; i < racers; i++ {
		id := uuid.New()
		g.Go(func() error {
			if _, err := inv.Hold([]domain.SeatID{"A1", "A2"}, id, t0); err == nil {
				wins <- id
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(wins)

	var winners []uuid.UUID
	for id := range wins {
		winners = append(winners, id)
	}
	require.Len(t, winners, 1)

	st := inv.Availability(t0)["A1"]
	assert.Equal(t, winners[0], st.SessionID)
	assert.Equal(t, 8, inv.Counts(t0).Free)
}

func TestRelease_IdempotentForFreeSeats(t *testing.T) {
	inv := newInv(t)
	sess := uuid.New()

	_, err := inv.Hold([]domain.SeatID{"A1", "A2"}, sess, t0)
	require.NoError(t, err)

	require.NoError(t, inv.Release([]domain.SeatID{"A1", "A2"}, sess))
	require.NoError(t, inv.Release([]domain.SeatID{"A1", "A2"}, sess))

	assert.Equal(t, 10, inv.Counts(t0).Free)
}

func TestRelease_ForeignHoldMutatesNothing(t *testing.T) {
	inv := newInv(t)
	owner := uuid.New()
	other := uuid.New()

	_, err := inv.Hold([]domain.SeatID{"A1"}, owner, t0)
	require.NoError(t, err)
	_, err = inv.Hold([]domain.SeatID{"A2"}, other, t0)
	require.NoError(t, err)

	err = inv.Release([]domain.SeatID{"A2", "A1"}, other)

	var ownership inventory.OwnershipError
	require.ErrorAs(t, err, &ownership)
	assert.Equal(t, domain.SeatID("A1"), ownership.SeatID)

	// Validate-then-mutate: A2 must still be held by other.
	st := inv.Availability(t0)["A2"]
	assert.Equal(t, domain.SeatHeld, st.Status)
	assert.Equal(t, other, st.SessionID)
}

func TestSettle_RecordsTicketCode(t *testing.T) {
	inv := newInv(t)
	sess := uuid.New()

	_, err := inv.Hold([]domain.SeatID{"A1", "B1"}, sess, t0)
	require.NoError(t, err)

	require.NoError(t, inv.Settle([]domain.SeatID{"A1", "B1"}, sess, "TKT23XYZ"))

	avail := inv.Availability(t0)
	for _, id := range []domain.SeatID{"A1", "B1"} {
		assert.Equal(t, domain.SeatSold, avail[id].Status)
		assert.Equal(t, "TKT23XYZ", avail[id].TicketCode)
	}

	// Sold is terminal: release and re-hold both fail.
	err = inv.Release([]domain.SeatID{"A1"}, sess)
	var ownership inventory.OwnershipError
	require.ErrorAs(t, err, &ownership)

	_, err = inv.Hold([]domain.SeatID{"A1"}, uuid.New(), t0.Add(time.Hour))
	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestSettle_RequiresLiveHold(t *testing.T) {
	inv := newInv(t)
	sess := uuid.New()

	err := inv.Settle([]domain.SeatID{"A1"}, sess, "TKT23XYZ")
	var ownership inventory.OwnershipError
	require.ErrorAs(t, err, &ownership)
}

func TestExpireStaleHolds(t *testing.T) {
	inv := newInv(t)
	sess := uuid.New()

	expiresAt, err := inv.Hold([]domain.SeatID{"A1", "A2"}, sess, t0)
	require.NoError(t, err)
	_, err = inv.Hold([]domain.SeatID{"B1"}, uuid.New(), t0.Add(time.Minute))
	require.NoError(t, err)

	freed := inv.ExpireStaleHolds(expiresAt.Add(time.Second))

	assert.ElementsMatch(t, []domain.SeatID{"A1", "A2"}, freed)

	counts := inv.Counts(expiresAt.Add(time.Second))
	assert.Equal(t, 9, counts.Free)
	assert.Equal(t, 1, counts.Held)
}

func TestSeats_CanonicalOrderAndSweep(t *testing.T) {
	inv := newInv(t)
	sess := uuid.New()

	expiresAt, err := inv.Hold([]domain.SeatID{"A3"}, sess, t0)
	require.NoError(t, err)

	seats := inv.Seats(expiresAt.Add(time.Second))
	require.Len(t, seats, 10)
	assert.Equal(t, domain.SeatID("A1"), seats[0].ID)
	assert.Equal(t, domain.SeatID("B5"), seats[9].ID)

	// Read path sweeps: the expired hold shows as free.
	for _, s := range seats {
		assert.Equal(t, domain.SeatFree, s.State.Status, "seat %s", s.ID)
	}
}

func TestRegistry(t *testing.T) {
	reg := inventory.NewRegistry()

	_, err := reg.Create(1, testLayout(t), time.Minute)
	require.NoError(t, err)

	_, err = reg.Create(1, testLayout(t), time.Minute)
	require.ErrorIs(t, err, inventory.ErrShowtimeExists)

	inv, err := reg.Get(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.ShowtimeID())

	_, err = reg.Get(99)
	require.ErrorIs(t, err, inventory.ErrShowtimeNotFound)

	assert.Len(t, reg.All(), 1)
}
