// Package ticket turns confirmed reservation sessions into immutable,
// offline-verifiable tickets.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/repository"
	"cinereserve/internal/session"
)

// AlreadyIssuedError carries the code of the existing ticket so a
// retrying client can recover it instead of being double-charged.
type AlreadyIssuedError struct {
	Code string
}

func (e AlreadyIssuedError) Error() string {
	return fmt.Sprintf("session already has ticket %s", e.Code)
}

// CodeGenerationExhaustedError means every generated confirmation code
// collided within the allowed attempts.
type CodeGenerationExhaustedError struct {
	Attempts int
}

func (e CodeGenerationExhaustedError) Error() string {
	return fmt.Sprintf("confirmation code generation exhausted after %d attempts", e.Attempts)
}

const defaultCodeAttempts = 5

type Issuer struct {
	store    repository.TicketStore
	registry *inventory.Registry
	attempts int
}

func NewIssuer(store repository.TicketStore, registry *inventory.Registry, attempts int) *Issuer {
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	return &Issuer{store: store, registry: registry, attempts: attempts}
}

// Issue converts a confirmed session into a ticket.
//
// The ticket row is saved first (retrying fresh codes while the store
// reports a code collision), then the seats are settled. If settlement
// fails, the saved ticket is deleted as a compensating write and the
// error surfaces: a ticket must never exist for seats the session does
// not control. A session that already has a ticket gets
// AlreadyIssuedError with the existing code.
func (i *Issuer) Issue(
	ctx context.Context,
	sess *session.Session,
	snapshot domain.ShowtimeSnapshot,
	quote domain.Quote,
	now time.Time,
) (*domain.Ticket, error) {
	const op = "ticket.Issuer.Issue"

	if status := sess.Status(); status != domain.SessionConfirmed {
		return nil, fmt.Errorf("%s: %w", op, session.InvalidStateError{Status: status})
	}

	if existing, err := i.store.TicketBySession(ctx, sess.ID()); err == nil {
		return nil, fmt.Errorf("%s: %w", op, AlreadyIssuedError{Code: existing.Code})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seatIDs := sess.SeatIDs()

	var t *domain.Ticket
	for attempt := 0; attempt < i.attempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		candidate := &domain.Ticket{
			Code:      code,
			SessionID: sess.ID(),
			Showtime:  snapshot,
			Seats:     seatIDs,
			Total:     quote.Total,
			QRPayload: Payload(code, snapshot.ShowtimeID, seatIDs),
			IssuedAt:  now,
		}

		err = i.store.SaveTicket(ctx, candidate)
		if err == nil {
			t = candidate
			break
		}
		if errors.Is(err, repository.ErrCodeConflict) {
			continue
		}
		if errors.Is(err, repository.ErrConflict) {
			// Lost an issuance race for the same session.
			if existing, lookErr := i.store.TicketBySession(ctx, sess.ID()); lookErr == nil {
				return nil, fmt.Errorf("%s: %w", op, AlreadyIssuedError{Code: existing.Code})
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%s: %w", op, CodeGenerationExhaustedError{Attempts: i.attempts})
	}

	inv, err := i.registry.Get(sess.ShowtimeID())
	if err != nil {
		_ = i.store.DeleteTicket(ctx, t.Code)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := inv.Settle(seatIDs, sess.ID(), t.Code); err != nil {
		_ = i.store.DeleteTicket(ctx, t.Code)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}
