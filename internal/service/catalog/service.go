package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/layout"
	"cinereserve/internal/repository"
)

type Config struct {
	// HoldTTL is the fixed hold duration stamped into every inventory
	// created by this service.
	HoldTTL time.Duration
}

const defaultHoldTTL = 5 * time.Minute

// Service is the admin side: it validates room definitions, records
// them in the catalog, and freezes layouts into showtime inventories.
type Service struct {
	store interface {
		repository.CatalogStore
		repository.CatalogWriter
	}
	registry *inventory.Registry
	cfg      Config
}

func New(store interface {
	repository.CatalogStore
	repository.CatalogWriter
}, registry *inventory.Registry, cfg Config) *Service {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = defaultHoldTTL
	}

	return &Service{store: store, registry: registry, cfg: cfg}
}

// CreateRoom validates the row definitions by building the layout once
// and, if they hold up, records the room. Structural errors
// (layout.DuplicateRowError, layout.InvalidSeatCountError) surface
// before anything is written.
func (s *Service) CreateRoom(ctx context.Context, cinema, name string, rows []domain.RowDef) (int64, error) {
	const op = "service.catalog.CreateRoom"

	built, err := layout.Build(rows)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if built.SeatCount() == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNoActiveRows)
	}

	id, err := s.store.CreateRoom(ctx, cinema, name, rows)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// CreateShowtime records the showtime and freezes the room's current
// layout into a fresh inventory. The inventory keeps that snapshot
// even if the room definition is edited later.
func (s *Service) CreateShowtime(
	ctx context.Context,
	roomID int64,
	movie string,
	startsAt time.Time,
	basePrice, surcharge float64,
) (int64, error) {
	const op = "service.catalog.CreateShowtime"

	rows, err := s.store.RoomRows(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, ErrRoomNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	built, err := layout.Build(rows)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.store.CreateShowtime(ctx, roomID, movie, startsAt, basePrice, surcharge)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.registry.Create(id, built, s.cfg.HoldTTL); err != nil {
		if errors.Is(err, inventory.ErrShowtimeExists) {
			return 0, fmt.Errorf("%s: %w", op, ErrShowtimeExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}
