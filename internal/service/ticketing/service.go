package ticketing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/pricing"
	redisx "cinereserve/internal/redis"
	"cinereserve/internal/repository"
	redisrepo "cinereserve/internal/repository/redis"
	"cinereserve/internal/session"
	"cinereserve/internal/ticket"
	"cinereserve/internal/uow"
)

type Config struct {
	// CodeAttempts bounds confirmation-code regeneration on collision.
	CodeAttempts int
	Clock        func() time.Time
}

// Service turns confirmed sessions into tickets and serves ticket
// lookups and gate verification.
type Service struct {
	sessions *session.Manager
	registry *inventory.Registry
	catalog  repository.CatalogStore
	tickets  repository.TicketStore
	issuer   *ticket.Issuer
	cache    *redisrepo.Cache
	pubsub   *redisx.ShowtimesPubSub
	uow      *uow.UoW
	clock    func() time.Time
}

func New(
	sessions *session.Manager,
	registry *inventory.Registry,
	catalog repository.CatalogStore,
	tickets repository.TicketStore,
	cache *redisrepo.Cache,
	pubsub *redisx.ShowtimesPubSub,
	cfg Config,
) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		sessions: sessions,
		registry: registry,
		catalog:  catalog,
		tickets:  tickets,
		issuer:   ticket.NewIssuer(tickets, registry, cfg.CodeAttempts),
		cache:    cache,
		pubsub:   pubsub,
		uow:      uow.New(),
		clock:    clock,
	}
}

// Quote prices the session's held seat set without any side effects,
// for the checkout screen.
func (s *Service) Quote(ctx context.Context, sessionID uuid.UUID) (domain.Quote, error) {
	const op = "service.ticketing.Quote"

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	snap, seats, err := s.sessionSeats(ctx, sess)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%s: %w", op, err)
	}

	return pricing.Quote(snap.BasePrice, snap.Surcharge, seats), nil
}

// Issue creates the ticket for a confirmed session: it quotes the held
// seats, issues the ticket (settling the seats), and notifies the read
// side. Idempotent per session via ticket.AlreadyIssuedError.
func (s *Service) Issue(ctx context.Context, sessionID uuid.UUID) (*domain.Ticket, error) {
	const op = "service.ticketing.Issue"

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	snap, seats, err := s.sessionSeats(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	quote := pricing.Quote(snap.BasePrice, snap.Surcharge, seats)

	var t *domain.Ticket
	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		var err error
		t, err = s.issuer.Issue(ctx, sess, *snap, quote, s.clock())
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateShowtime(ctx, sess.ShowtimeID())
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishShowtimeChanged(ctx, sess.ShowtimeID())
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// GetTicket looks a ticket up by confirmation code.
func (s *Service) GetTicket(ctx context.Context, code string) (*domain.Ticket, error) {
	const op = "service.ticketing.GetTicket"

	t, err := s.tickets.TicketByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTicketNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// VerifyPayload is the gate check: it recomputes the expected QR
// payload from the stored ticket's fields and compares it with the
// scanned one. No live inventory state is consulted.
func (s *Service) VerifyPayload(ctx context.Context, code, scanned string) (bool, error) {
	const op = "service.ticketing.VerifyPayload"

	t, err := s.GetTicket(ctx, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ticket.Verify(scanned, t.Code, t.Showtime.ShowtimeID, t.Seats), nil
}

// sessionSeats resolves the session's seat ids against the frozen
// layout and fetches the showtime snapshot.
func (s *Service) sessionSeats(ctx context.Context, sess *session.Session) (*domain.ShowtimeSnapshot, []domain.Seat, error) {
	snap, err := s.catalog.Showtime(ctx, sess.ShowtimeID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrShowtimeNotFound
		}
		return nil, nil, err
	}

	inv, err := s.registry.Get(sess.ShowtimeID())
	if err != nil {
		return nil, nil, ErrShowtimeNotFound
	}

	layout := inv.Layout()
	seatIDs := sess.SeatIDs()
	seats := make([]domain.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		seat, ok := layout.Seat(id)
		if !ok {
			return nil, nil, inventory.SeatsNotFoundError{SeatIDs: []domain.SeatID{id}}
		}
		seats = append(seats, seat)
	}

	return snap, seats, nil
}
