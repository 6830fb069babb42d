package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/layout"
	"cinereserve/internal/session"
)

var t0 = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

const holdTTL = 5 * time.Minute

func newManager(t *testing.T) (*session.Manager, *inventory.Registry) {
	t.Helper()

	l, err := layout.Build([]domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 5, Active: true},
	})
	require.NoError(t, err)

	reg := inventory.NewRegistry()
	_, err = reg.Create(1, l, holdTTL)
	require.NoError(t, err)

	return session.NewManager(reg), reg
}

func TestOpen(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1", "A2"}, t0)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, sess.ID())
	assert.Equal(t, int64(1), sess.ShowtimeID())
	assert.Equal(t, domain.SessionActive, sess.Status())
	assert.Equal(t, t0, sess.CreatedAt())
	assert.Equal(t, t0.Add(holdTTL), sess.ExpiresAt())
	assert.Equal(t, []domain.SeatID{"A1", "A2"}, sess.SeatIDs())

	inv, err := reg.Get(1)
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), inv.Availability(t0)["A1"].SessionID)
}

func TestOpen_Validation(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Open(1, nil, t0)
	require.ErrorIs(t, err, session.ErrNoSeats)

	_, err = m.Open(1, []domain.SeatID{"A1", "A1"}, t0)
	require.ErrorIs(t, err, session.ErrDuplicateSeats)

	_, err = m.Open(42, []domain.SeatID{"A1"}, t0)
	require.ErrorIs(t, err, inventory.ErrShowtimeNotFound)
}

func TestOpen_NoSessionOnFailedHold(t *testing.T) {
	m, _ := newManager(t)

	first, err := m.Open(1, []domain.SeatID{"A1"}, t0)
	require.NoError(t, err)

	_, err = m.Open(1, []domain.SeatID{"A1", "A2"}, t0)
	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)

	// Only the winning session exists.
	got, err := m.Get(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestCancel_ReleasesSeats(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1", "A2"}, t0)
	require.NoError(t, err)

	require.NoError(t, m.Cancel(sess.ID(), t0))
	assert.Equal(t, domain.SessionCancelled, sess.Status())

	inv, err := reg.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Counts(t0).Free)

	// Cancelled is terminal.
	err = m.Cancel(sess.ID(), t0)
	var invalid session.InvalidStateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.SessionCancelled, invalid.Status)
}

func TestConfirm_WithinWindow(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1"}, t0)
	require.NoError(t, err)

	require.NoError(t, m.Confirm(sess.ID(), t0.Add(holdTTL-time.Second)))
	assert.Equal(t, domain.SessionConfirmed, sess.Status())

	// Confirm does not settle; the seat stays held for the issuer.
	inv, err := reg.Get(1)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatHeld, inv.Availability(t0)["A1"].Status)

	// Confirmed is terminal for Confirm and Cancel both.
	var invalid session.InvalidStateError
	require.ErrorAs(t, m.Confirm(sess.ID(), t0), &invalid)
	require.ErrorAs(t, m.Cancel(sess.ID(), t0), &invalid)
}

func TestConfirm_PastExpiry(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1"}, t0)
	require.NoError(t, err)

	// Expiry instant itself already counts as expired.
	err = m.Confirm(sess.ID(), sess.ExpiresAt())

	var expired session.ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, sess.ExpiresAt(), expired.ExpiredAt)
	assert.Equal(t, domain.SessionExpired, sess.Status())

	inv, err := reg.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Counts(t0).Free)
}

func TestConfirm_PastExpiryAfterSweep(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1"}, t0)
	require.NoError(t, err)

	inv, err := reg.Get(1)
	require.NoError(t, err)

	// The sweep frees the seat first; Confirm must still expire the
	// session cleanly instead of tripping over the already-free seat.
	freed := inv.ExpireStaleHolds(sess.ExpiresAt().Add(time.Second))
	require.Equal(t, []domain.SeatID{"A1"}, freed)

	err = m.Confirm(sess.ID(), sess.ExpiresAt().Add(time.Second))
	var expired session.ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, domain.SessionExpired, sess.Status())
}

func TestConfirm_PastExpiryFreesSeatsNotReclaimed(t *testing.T) {
	m, reg := newManager(t)

	sess, err := m.Open(1, []domain.SeatID{"A1", "A2"}, t0)
	require.NoError(t, err)

	inv, err := reg.Get(1)
	require.NoError(t, err)

	// A competing session grabs A1 the moment the hold lapses.
	other := uuid.New()
	_, err = inv.Hold([]domain.SeatID{"A1"}, other, sess.ExpiresAt())
	require.NoError(t, err)

	err = m.Confirm(sess.ID(), sess.ExpiresAt())
	var expired session.ExpiredError
	require.ErrorAs(t, err, &expired)

	// A2 was freed right away, not left for the sweep; query with a
	// pre-expiry clock so lazy sweeping cannot mask a leftover hold.
	avail := inv.Availability(t0)
	assert.Equal(t, domain.SeatFree, avail["A2"].Status)
	assert.Equal(t, domain.SeatHeld, avail["A1"].Status)
	assert.Equal(t, other, avail["A1"].SessionID)
}

func TestGet_Unknown(t *testing.T) {
	m, _ := newManager(t)

	_, err := m.Get(uuid.New())
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}
