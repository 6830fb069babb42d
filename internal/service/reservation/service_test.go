package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/layout"
	"cinereserve/internal/repository/memory"
	"cinereserve/internal/service/reservation"
	"cinereserve/internal/session"
)

const holdTTL = 5 * time.Minute

// fakeClock is a hand-advanced time source so expiry behavior is
// deterministic in tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc      *reservation.Service
	store    *memory.Store
	registry *inventory.Registry
	sessions *session.Manager
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	l, err := layout.Build([]domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 5, Active: true},
	})
	require.NoError(t, err)

	reg := inventory.NewRegistry()
	_, err = reg.Create(1, l, holdTTL)
	require.NoError(t, err)

	store := memory.NewStore()
	sessions := session.NewManager(reg)
	clock := &fakeClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}

	svc := reservation.New(sessions, reg, nil, nil, nil, store, reservation.Config{Clock: clock.Now})

	return &fixture{svc: svc, store: store, registry: reg, sessions: sessions, clock: clock}
}

func TestOpenHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1", "A2"}, "")
	require.NoError(t, err)

	assert.Equal(t, domain.SessionActive, sess.Status())
	assert.Equal(t, f.clock.Now().Add(holdTTL), sess.ExpiresAt())

	events := f.store.SessionEvents()
	require.Len(t, events, 1)
	assert.Equal(t, sess.ID(), events[0].SessionID)
	assert.Equal(t, domain.SessionActive, events[0].Status)
}

func TestOpenHold_UnknownShowtime(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OpenHold(context.Background(), 42, []domain.SeatID{"A1"}, "")
	require.ErrorIs(t, err, reservation.ErrShowtimeNotFound)
}

func TestOpenHold_ConflictWritesNoAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1"}, "")
	require.NoError(t, err)

	_, err = f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1"}, "")
	var unavailable inventory.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)

	// Hooks run only after a successful mutation.
	assert.Len(t, f.store.SessionEvents(), 1)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1"}, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, sess.ID()))
	assert.Equal(t, domain.SessionCancelled, sess.Status())

	events := f.store.SessionEvents()
	require.Len(t, events, 2)
	assert.Equal(t, domain.SessionCancelled, events[1].Status)

	require.ErrorIs(t, f.svc.Cancel(ctx, uuid.New()), reservation.ErrSessionNotFound)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1"}, "")
	require.NoError(t, err)

	f.clock.Advance(holdTTL - time.Second)
	require.NoError(t, f.svc.Confirm(ctx, sess.ID()))
	assert.Equal(t, domain.SessionConfirmed, sess.Status())
}

func TestConfirm_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1"}, "")
	require.NoError(t, err)

	f.clock.Advance(holdTTL + time.Second)
	err = f.svc.Confirm(ctx, sess.ID())

	var expired session.ExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, domain.SessionExpired, sess.Status())

	// Seats went back to the pool.
	inv, err := f.registry.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Counts(f.clock.Now()).Free)
}

func TestExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.OpenHold(ctx, 1, []domain.SeatID{"A1", "A2"}, "")
	require.NoError(t, err)

	// Nothing stale yet.
	freed, err := f.svc.Expire(ctx)
	require.NoError(t, err)
	assert.Zero(t, freed)

	f.clock.Advance(holdTTL + time.Second)
	freed, err = f.svc.Expire(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), freed)

	inv, err := f.registry.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Counts(f.clock.Now()).Free)
}
