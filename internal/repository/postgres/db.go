package postgresrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cinereserve/internal/domain"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Tickets() *TicketRepo  { return &TicketRepo{store: s, pool: s.pool} }
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{pool: s.pool} }
func (s *Store) Audit() *AuditRepo     { return &AuditRepo{pool: s.pool} }

// The Store itself satisfies the repository contracts by forwarding to
// its repos, so callers that do not care about transactions can treat
// it as one collaborator.

func (s *Store) SaveTicket(ctx context.Context, t *domain.Ticket) error {
	return s.Tickets().SaveTicket(ctx, t)
}

func (s *Store) TicketByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	return s.Tickets().TicketByCode(ctx, code)
}

func (s *Store) TicketBySession(ctx context.Context, sessionID uuid.UUID) (*domain.Ticket, error) {
	return s.Tickets().TicketBySession(ctx, sessionID)
}

func (s *Store) DeleteTicket(ctx context.Context, code string) error {
	return s.Tickets().DeleteTicket(ctx, code)
}

func (s *Store) RoomRows(ctx context.Context, roomID int64) ([]domain.RowDef, error) {
	return s.Catalog().RoomRows(ctx, roomID)
}

func (s *Store) Showtime(ctx context.Context, showtimeID int64) (*domain.ShowtimeSnapshot, error) {
	return s.Catalog().Showtime(ctx, showtimeID)
}

func (s *Store) CreateRoom(ctx context.Context, cinema, name string, rows []domain.RowDef) (int64, error) {
	return s.Catalog().CreateRoom(ctx, cinema, name, rows)
}

func (s *Store) CreateShowtime(ctx context.Context, roomID int64, movie string, startsAt time.Time, basePrice, surcharge float64) (int64, error) {
	return s.Catalog().CreateShowtime(ctx, roomID, movie, startsAt, basePrice, surcharge)
}
