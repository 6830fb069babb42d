package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cinereserve/internal/domain"
	"cinereserve/internal/repository"
)

// AuditRepo persists the append-only session trail and a write-through
// copy of seat states. The in-memory inventory stays the authority;
// these rows exist for recovery and reporting.
type AuditRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AuditRepo) With(db DB) *AuditRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AuditRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *AuditRepo) RecordSessionEvent(ctx context.Context, ev repository.SessionEvent) error {
	const op = "postgresrepo.AuditRepo.RecordSessionEvent"

	db := r.handle()

	seats := make([]string, len(ev.Seats))
	for i, s := range ev.Seats {
		seats[i] = string(s)
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO session_events(session_id, showtime_id, status, seats, at)
		 VALUES ($1, $2, $3, $4, $5)`,
		ev.SessionID, ev.ShowtimeID, string(ev.Status), seats, ev.At,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *AuditRepo) RecordSeatStates(ctx context.Context, showtimeID int64, seats []domain.SeatWithState) error {
	const op = "postgresrepo.AuditRepo.RecordSeatStates"

	db := r.handle()

	batch := &pgx.Batch{}
	for _, s := range seats {
		batch.Queue(
			`INSERT INTO showtime_seats(showtime_id, seat_id, status, session_id, expires_at, ticket_code)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (showtime_id, seat_id) DO UPDATE
			 SET status = EXCLUDED.status,
			     session_id = EXCLUDED.session_id,
			     expires_at = EXCLUDED.expires_at,
			     ticket_code = EXCLUDED.ticket_code`,
			showtimeID, string(s.ID), string(s.State.Status),
			s.State.SessionID, s.State.ExpiresAt, s.State.TicketCode,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

var _ repository.AuditLog = (*AuditRepo)(nil)
