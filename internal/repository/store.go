// Package repository defines the persistence collaborator contracts
// the reservation core depends on, and the sentinel errors every
// implementation translates its failures into.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
)

// TicketStore is durable storage for issued tickets. Implementations
// must enforce uniqueness of the confirmation code (reporting
// ErrCodeConflict) and of the issuing session (ErrConflict), since the
// issuer's collision retry and per-session idempotency both lean on
// those guarantees.
type TicketStore interface {
	// SaveTicket persists a ticket. ErrCodeConflict when the code is
	// taken; ErrConflict when the session already has a ticket.
	SaveTicket(ctx context.Context, t *domain.Ticket) error

	// TicketByCode returns ErrNotFound for unknown codes.
	TicketByCode(ctx context.Context, code string) (*domain.Ticket, error)

	// TicketBySession returns ErrNotFound when the session has no
	// ticket yet.
	TicketBySession(ctx context.Context, sessionID uuid.UUID) (*domain.Ticket, error)

	// DeleteTicket removes a ticket; the compensating write when seat
	// settlement fails after the ticket row was saved.
	DeleteTicket(ctx context.Context, code string) error
}

// SessionEvent is one row of the append-only session audit trail.
type SessionEvent struct {
	SessionID  uuid.UUID
	ShowtimeID int64
	Status     domain.SessionStatus
	Seats      []domain.SeatID
	At         time.Time
}

// AuditLog is the optional durability side of the in-memory inventory:
// session lifecycle events and seat-state write-through, recorded
// after each successful mutation. Implementations must tolerate being
// called from concurrent showtimes.
type AuditLog interface {
	RecordSessionEvent(ctx context.Context, ev SessionEvent) error
	RecordSeatStates(ctx context.Context, showtimeID int64, seats []domain.SeatWithState) error
}

// CatalogStore is the read-only catalog/schedule source: room row
// definitions and showtime pricing data.
type CatalogStore interface {
	// RoomRows returns the raw row definitions of a room, or
	// ErrNotFound.
	RoomRows(ctx context.Context, roomID int64) ([]domain.RowDef, error)

	// Showtime returns the showtime snapshot data (cinema, room,
	// movie, start, base price, surcharge), or ErrNotFound.
	Showtime(ctx context.Context, showtimeID int64) (*domain.ShowtimeSnapshot, error)
}

// CatalogWriter is the admin side of the catalog.
type CatalogWriter interface {
	CreateRoom(ctx context.Context, cinema, name string, rows []domain.RowDef) (int64, error)
	CreateShowtime(ctx context.Context, roomID int64, movie string, startsAt time.Time, basePrice, surcharge float64) (int64, error)
}
