package service

import (
	"cinereserve/internal/inventory"
	redisx "cinereserve/internal/redis"
	"cinereserve/internal/repository"
	redisrepo "cinereserve/internal/repository/redis"
	"cinereserve/internal/service/catalog"
	"cinereserve/internal/service/query"
	"cinereserve/internal/service/reservation"
	"cinereserve/internal/service/ticketing"
	"cinereserve/internal/session"
)

type Services struct {
	Reservation *reservation.Service
	Ticketing   *ticketing.Service
	Query       *query.Service
	Catalog     *catalog.Service
}

type Config struct {
	Reservation reservation.Config
	Ticketing   ticketing.Config
	Query       query.Config
	Catalog     catalog.Config
}

// Store is what the service layer needs from the persistence
// collaborator; both the memory store and the postgres store satisfy
// it.
type Store interface {
	repository.TicketStore
	repository.CatalogStore
	repository.CatalogWriter
}

func NewServices(
	store Store,
	audit repository.AuditLog,
	registry *inventory.Registry,
	sessions *session.Manager,
	cache *redisrepo.Cache,
	pubsub *redisx.ShowtimesPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Reservation: reservation.New(sessions, registry, cache, pubsub, limiter, audit, cfg.Reservation),
		Ticketing:   ticketing.New(sessions, registry, store, store, cache, pubsub, cfg.Ticketing),
		Query:       query.New(registry, store, cache, cfg.Query),
		Catalog:     catalog.New(store, registry, cfg.Catalog),
	}
}
