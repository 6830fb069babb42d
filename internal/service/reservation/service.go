package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	redisx "cinereserve/internal/redis"
	"cinereserve/internal/repository"
	redisrepo "cinereserve/internal/repository/redis"
	"cinereserve/internal/session"
	"cinereserve/internal/uow"
)

type Config struct {
	// Clock is the authoritative time source for hold expiry
	// decisions. Defaults to time.Now.
	Clock func() time.Time
}

// Service orchestrates the seat-hold lifecycle: it owns the session
// manager and inventory registry, and after every successful mutation
// invalidates the availability cache, publishes a change notification
// and writes the audit trail.
type Service struct {
	sessions *session.Manager
	registry *inventory.Registry
	cache    *redisrepo.Cache
	pubsub   *redisx.ShowtimesPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	audit    repository.AuditLog
	uow      *uow.UoW
	clock    func() time.Time
}

func New(
	sessions *session.Manager,
	registry *inventory.Registry,
	cache *redisrepo.Cache,
	pubsub *redisx.ShowtimesPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	audit repository.AuditLog,
	cfg Config,
) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		sessions: sessions,
		registry: registry,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		audit:    audit,
		uow:      uow.New(),
		clock:    clock,
	}
}

// OpenHold opens a reservation session holding the requested seats.
//
// Returns:
//   - *session.Session: the active session on success.
//   - error: reservation.ErrShowtimeNotFound for unknown showtimes.
//   - error: inventory.SeatsUnavailableError naming the conflicting
//     seats when any requested seat is not free.
//   - error: reservation.ErrRateLimited when rlKey exceeds the window.
func (s *Service) OpenHold(
	ctx context.Context,
	showtimeID int64,
	seatIDs []domain.SeatID,
	rlKey string,
) (*session.Session, error) {
	const op = "service.reservation.OpenHold"

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w, retry in %s", op, ErrRateLimited, retry)
		}
	}

	var sess *session.Session

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		var err error
		sess, err = s.sessions.Open(showtimeID, seatIDs, s.clock())
		if err != nil {
			if errors.Is(err, inventory.ErrShowtimeNotFound) {
				return fmt.Errorf("%s: %w", op, ErrShowtimeNotFound)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.showtimeChanged(showtimeID))
		after(s.sessionEvent(sess, domain.SessionActive))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Cancel releases the session's seats and marks it cancelled.
func (s *Service) Cancel(ctx context.Context, sessionID uuid.UUID) error {
	const op = "service.reservation.Cancel"

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}

		if err := s.sessions.Cancel(sessionID, s.clock()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.showtimeChanged(sess.ShowtimeID()))
		after(s.sessionEvent(sess, domain.SessionCancelled))

		return nil
	})
}

// Confirm transitions the session to confirmed. Expiry is decided
// here, with the service clock: a stale session comes back as
// session.ExpiredError and its seats return to the pool.
func (s *Service) Confirm(ctx context.Context, sessionID uuid.UUID) error {
	const op = "service.reservation.Confirm"

	return s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}

		if err := s.sessions.Confirm(sessionID, s.clock()); err != nil {
			var expired session.ExpiredError
			if errors.As(err, &expired) {
				// Seats were released; the display layer should hear
				// about it even though the confirm failed.
				s.showtimeChanged(sess.ShowtimeID())(ctx)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(s.sessionEvent(sess, domain.SessionConfirmed))

		return nil
	})
}

// Expire sweeps every registered inventory and frees stale holds.
// Returns the number of seats freed across all showtimes.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	now := s.clock()

	var freed int64
	for _, inv := range s.registry.All() {
		released := inv.ExpireStaleHolds(now)
		if len(released) == 0 {
			continue
		}
		freed += int64(len(released))
		s.showtimeChanged(inv.ShowtimeID())(ctx)
	}

	return freed, nil
}

func (s *Service) showtimeChanged(showtimeID int64) uow.AfterCommit {
	return func(ctx context.Context) {
		if s.cache != nil {
			_ = s.cache.InvalidateShowtime(ctx, showtimeID)
		}
		if s.pubsub != nil {
			_ = s.pubsub.PublishShowtimeChanged(ctx, showtimeID)
		}
		if s.audit != nil {
			if inv, err := s.registry.Get(showtimeID); err == nil {
				_ = s.audit.RecordSeatStates(ctx, showtimeID, inv.Seats(s.clock()))
			}
		}
	}
}

func (s *Service) sessionEvent(sess *session.Session, status domain.SessionStatus) uow.AfterCommit {
	return func(ctx context.Context) {
		if s.audit == nil {
			return
		}
		_ = s.audit.RecordSessionEvent(ctx, repository.SessionEvent{
			SessionID:  sess.ID(),
			ShowtimeID: sess.ShowtimeID(),
			Status:     status,
			Seats:      sess.SeatIDs(),
			At:         s.clock(),
		})
	}
}
