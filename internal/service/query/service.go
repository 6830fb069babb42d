package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cinereserve/internal/domain"
	"cinereserve/internal/inventory"
	"cinereserve/internal/pricing"
	redisx "cinereserve/internal/redis"
	"cinereserve/internal/repository"
	redisrepo "cinereserve/internal/repository/redis"
)

type Config struct {
	AvailabilityTTL  time.Duration
	SeatMapTTL       time.Duration
	DefaultSeatsPage int
	MaxSeatsPage     int
	Clock            func() time.Time
}

// SeatView is the display layer's row: a seat, its current state and
// its price for this showtime.
type SeatView struct {
	domain.SeatWithState
	Price float64 `json:"price"`
}

// Service is the read side: availability counters and seat listings,
// cached in redis with short TTLs and invalidated by the write side.
type Service struct {
	registry *inventory.Registry
	catalog  repository.CatalogStore
	cache    *redisrepo.Cache
	cfg      Config
	clock    func() time.Time
}

func New(registry *inventory.Registry, catalog repository.CatalogStore, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 5 * time.Second
	}

	if cfg.SeatMapTTL <= 0 {
		cfg.SeatMapTTL = 5 * time.Second
	}

	if cfg.DefaultSeatsPage <= 0 {
		cfg.DefaultSeatsPage = 100
	}

	if cfg.MaxSeatsPage <= 0 {
		cfg.MaxSeatsPage = 500
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		registry: registry,
		catalog:  catalog,
		cache:    cache,
		cfg:      cfg,
		clock:    clock,
	}
}

// Availability returns the showtime's free/held/sold counters. Stale
// holds are swept before counting, so an expired hold never shows as
// unavailable.
func (s *Service) Availability(ctx context.Context, showtimeID int64) (*domain.ShowtimeCounts, error) {
	const op = "service.query.Availability"

	load := func(ctx context.Context) (domain.ShowtimeCounts, error) {
		inv, err := s.registry.Get(showtimeID)
		if err != nil {
			return domain.ShowtimeCounts{}, ErrShowtimeNotFound
		}
		return inv.Counts(s.clock()), nil
	}

	if s.cache == nil {
		counts, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &counts, nil
	}

	counts, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyShowtimeAvailability(showtimeID),
		s.cfg.AvailabilityTTL,
		load,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &counts, nil
}

// Seats lists the showtime's seats in canonical layout order with
// per-seat prices, paginated for large rooms.
func (s *Service) Seats(
	ctx context.Context,
	showtimeID int64,
	onlyFree bool,
	limit, offset int,
) ([]SeatView, error) {
	const op = "service.query.Seats"

	if limit <= 0 {
		limit = s.cfg.DefaultSeatsPage
	}
	if limit > s.cfg.MaxSeatsPage {
		limit = s.cfg.MaxSeatsPage
	}
	if offset < 0 {
		offset = 0
	}

	views, err := s.seatMap(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if onlyFree {
		filtered := views[:0]
		for _, v := range views {
			if v.State.Status == domain.SeatFree {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	if offset >= len(views) {
		return []SeatView{}, nil
	}
	end := offset + limit
	if end > len(views) {
		end = len(views)
	}

	return views[offset:end], nil
}

func (s *Service) seatMap(ctx context.Context, showtimeID int64) ([]SeatView, error) {
	load := func(ctx context.Context) ([]SeatView, error) {
		inv, err := s.registry.Get(showtimeID)
		if err != nil {
			return nil, ErrShowtimeNotFound
		}

		snap, err := s.catalog.Showtime(ctx, showtimeID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrShowtimeNotFound
			}
			return nil, err
		}

		seats := inv.Seats(s.clock())
		views := make([]SeatView, len(seats))
		for i, sw := range seats {
			views[i] = SeatView{
				SeatWithState: sw,
				Price:         pricing.SeatPrice(snap.BasePrice, snap.Surcharge, sw.Seat),
			}
		}
		return views, nil
	}

	if s.cache == nil {
		return load(ctx)
	}

	return redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyShowtimeSeatMap(showtimeID),
		s.cfg.SeatMapTTL,
		load,
	)
}
