package postgresrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cinereserve/internal/domain"
	"cinereserve/internal/repository"
)

// TicketRepo is the durable side of ticket issuance. The tickets table
// keys on the confirmation code and carries a unique index on the
// issuing session, which is what makes issuance idempotent per session
// across processes.
type TicketRepo struct {
	store *Store
	pool  *pgxpool.Pool
	db    DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// SaveTicket inserts the ticket row and its seat rows in one
// transaction.
func (r *TicketRepo) SaveTicket(ctx context.Context, t *domain.Ticket) error {
	const op = "postgresrepo.TicketRepo.SaveTicket"

	if r.db != nil {
		if err := r.saveTicketCore(ctx, r.db, t); err != nil {
			return wrapDBErr(op, err)
		}
		return nil
	}

	err := r.store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		return r.saveTicketCore(ctx, tx, t)
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *TicketRepo) saveTicketCore(ctx context.Context, db DB, t *domain.Ticket) error {
	if _, err := db.Exec(ctx,
		`INSERT INTO tickets(
		 	code, session_id, showtime_id, cinema, room, movie,
		 	starts_at, base_price, surcharge, total, qr_payload, issued_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.Code, t.SessionID, t.Showtime.ShowtimeID, t.Showtime.Cinema,
		t.Showtime.Room, t.Showtime.Movie, t.Showtime.StartsAt,
		t.Showtime.BasePrice, t.Showtime.Surcharge, t.Total,
		t.QRPayload, t.IssuedAt,
	); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, seatID := range t.Seats {
		batch.Queue(
			`INSERT INTO ticket_seats(ticket_code, seat_id)
			 VALUES ($1, $2)`,
			t.Code, string(seatID),
		)
	}

	return db.SendBatch(ctx, batch).Close()
}

func (r *TicketRepo) TicketByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.TicketByCode"

	db := r.handle()

	var t domain.Ticket
	err := db.QueryRow(ctx,
		`SELECT code, session_id, showtime_id, cinema, room, movie,
		        starts_at, base_price, surcharge, total, qr_payload, issued_at
		 FROM tickets WHERE code = $1`,
		code,
	).Scan(
		&t.Code, &t.SessionID, &t.Showtime.ShowtimeID, &t.Showtime.Cinema,
		&t.Showtime.Room, &t.Showtime.Movie, &t.Showtime.StartsAt,
		&t.Showtime.BasePrice, &t.Showtime.Surcharge, &t.Total,
		&t.QRPayload, &t.IssuedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	if err := r.loadSeats(ctx, db, &t); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TicketRepo) TicketBySession(ctx context.Context, sessionID uuid.UUID) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.TicketBySession"

	db := r.handle()

	var code string
	err := db.QueryRow(ctx,
		`SELECT code FROM tickets WHERE session_id = $1`,
		sessionID,
	).Scan(&code)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return r.TicketByCode(ctx, code)
}

// DeleteTicket removes a ticket and its seat rows; the compensating
// write when settlement fails after the ticket was saved.
func (r *TicketRepo) DeleteTicket(ctx context.Context, code string) error {
	const op = "postgresrepo.TicketRepo.DeleteTicket"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`DELETE FROM ticket_seats WHERE ticket_code = $1`, code,
	); err != nil {
		return wrapDBErr(op, err)
	}

	ct, err := db.Exec(ctx, `DELETE FROM tickets WHERE code = $1`, code)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if ct.RowsAffected() == 0 {
		return wrapDBErr(op, pgx.ErrNoRows)
	}

	return nil
}

func (r *TicketRepo) loadSeats(ctx context.Context, db DB, t *domain.Ticket) error {
	rows, err := db.Query(ctx,
		`SELECT seat_id FROM ticket_seats
		 WHERE ticket_code = $1
		 ORDER BY seat_id`,
		t.Code,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			return err
		}
		t.Seats = append(t.Seats, domain.SeatID(sid))
	}

	return rows.Err()
}

// compile-time check against the persistence contract
var _ repository.TicketStore = (*TicketRepo)(nil)
