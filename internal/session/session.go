// Package session implements the time-boxed reservation session: a
// single buyer's exclusive claim on a set of seats during checkout.
//
// The state machine is Active -> Confirmed | Expired | Cancelled, with
// the three right-hand states terminal. Confirming does not settle the
// seats; settlement belongs to the ticket issuer, so "session is
// confirmed" and "seats are sold" stay two explicit steps.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
)

type Session struct {
	id         uuid.UUID
	showtimeID int64
	seatIDs    []domain.SeatID
	createdAt  time.Time
	expiresAt  time.Time

	mu     sync.Mutex
	status domain.SessionStatus
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) ShowtimeID() int64    { return s.showtimeID }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// SeatIDs returns a copy of the held seat set.
func (s *Session) SeatIDs() []domain.SeatID {
	out := make([]domain.SeatID, len(s.seatIDs))
	copy(out, s.seatIDs)
	return out
}

func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Manager owns the live sessions and mediates between them and the
// showtime inventories.
type Manager struct {
	registry *inventory.Registry

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewManager(registry *inventory.Registry) *Manager {
	return &Manager{
		registry: registry,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open holds the requested seats and creates an active session. The
// seat set must be non-empty and free of duplicates. If the hold
// fails, no session is created.
func (m *Manager) Open(showtimeID int64, seatIDs []domain.SeatID, now time.Time) (*Session, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNoSeats
	}
	seen := make(map[domain.SeatID]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateSeats
		}
		seen[id] = struct{}{}
	}

	inv, err := m.registry.Get(showtimeID)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	expiresAt, err := inv.Hold(seatIDs, id, now)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		id:         id,
		showtimeID: showtimeID,
		seatIDs:    append([]domain.SeatID(nil), seatIDs...),
		createdAt:  now,
		expiresAt:  expiresAt,
		status:     domain.SessionActive,
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return sess, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Cancel releases the session's seats and marks it cancelled. Valid
// only while active.
func (m *Manager) Cancel(id uuid.UUID, now time.Time) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != domain.SessionActive {
		return InvalidStateError{Status: sess.status}
	}

	inv, err := m.registry.Get(sess.showtimeID)
	if err != nil {
		return err
	}
	if err := inv.Release(sess.seatIDs, sess.id); err != nil {
		return err
	}

	sess.status = domain.SessionCancelled
	return nil
}

// Confirm transitions an active, unexpired session to confirmed.
//
// A session found past its expiry is moved to Expired, its seats are
// released, and ExpiredError is returned rather than a silent success.
// Confirm never settles seats; that is the issuer's step.
func (m *Manager) Confirm(id uuid.UUID, now time.Time) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status != domain.SessionActive {
		return InvalidStateError{Status: sess.status}
	}

	if !now.Before(sess.expiresAt) {
		sess.status = domain.SessionExpired
		if inv, invErr := m.registry.Get(sess.showtimeID); invErr == nil {
			// Free the lapsed hold seat by seat: a competing session
			// may already have re-held part of the set, and its claim
			// must not block freeing the rest. Release is idempotent
			// for seats the sweep got to first.
			for _, seatID := range sess.seatIDs {
				_ = inv.Release([]domain.SeatID{seatID}, sess.id)
			}
		}
		return ExpiredError{ExpiredAt: sess.expiresAt}
	}

	sess.status = domain.SessionConfirmed
	return nil
}
