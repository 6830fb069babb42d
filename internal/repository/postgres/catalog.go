package postgresrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cinereserve/internal/domain"
	"cinereserve/internal/repository"
)

// CatalogRepo reads and writes the catalog/schedule side: rooms with
// their row definitions and showtimes with their pricing.
type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *CatalogRepo) CreateRoom(ctx context.Context, cinema, name string, rows []domain.RowDef) (int64, error) {
	const op = "postgresrepo.CatalogRepo.CreateRoom"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO rooms(cinema, name)
		 VALUES ($1, $2)
		 RETURNING id`,
		cinema, name,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO room_rows(room_id, letter, number, seat_type, multiplier, seat_count, active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, row.Letter, row.Number, string(row.Type),
			row.Multiplier, row.SeatCount, row.Active,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *CatalogRepo) RoomRows(ctx context.Context, roomID int64) ([]domain.RowDef, error) {
	const op = "postgresrepo.CatalogRepo.RoomRows"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT letter, number, seat_type, multiplier, seat_count, active
		 FROM room_rows
		 WHERE room_id = $1
		 ORDER BY number`,
		roomID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var defs []domain.RowDef
	for rows.Next() {
		var d domain.RowDef
		var seatType string
		if err := rows.Scan(&d.Letter, &d.Number, &seatType, &d.Multiplier, &d.SeatCount, &d.Active); err != nil {
			return nil, wrapDBErr(op, err)
		}
		d.Type = domain.SeatType(seatType)
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	if len(defs) == 0 {
		return nil, wrapDBErr(op, pgx.ErrNoRows)
	}

	return defs, nil
}

func (r *CatalogRepo) CreateShowtime(
	ctx context.Context,
	roomID int64,
	movie string,
	startsAt time.Time,
	basePrice, surcharge float64,
) (int64, error) {
	const op = "postgresrepo.CatalogRepo.CreateShowtime"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO showtimes(room_id, movie, starts_at, base_price, surcharge)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		roomID, movie, startsAt, basePrice, surcharge,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *CatalogRepo) Showtime(ctx context.Context, showtimeID int64) (*domain.ShowtimeSnapshot, error) {
	const op = "postgresrepo.CatalogRepo.Showtime"

	db := r.handle()

	var snap domain.ShowtimeSnapshot
	err := db.QueryRow(ctx,
		`SELECT s.id, r.cinema, r.name, s.movie, s.starts_at, s.base_price, s.surcharge
		 FROM showtimes s
		 JOIN rooms r ON r.id = s.room_id
		 WHERE s.id = $1`,
		showtimeID,
	).Scan(
		&snap.ShowtimeID, &snap.Cinema, &snap.Room, &snap.Movie,
		&snap.StartsAt, &snap.BasePrice, &snap.Surcharge,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &snap, nil
}

var (
	_ repository.CatalogStore  = (*CatalogRepo)(nil)
	_ repository.CatalogWriter = (*CatalogRepo)(nil)
)
