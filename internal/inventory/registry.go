package inventory

import (
	"errors"
	"sync"
	"time"

	"cinereserve/internal/domain"
)

var (
	ErrShowtimeExists   = errors.New("showtime inventory already exists")
	ErrShowtimeNotFound = errors.New("showtime inventory not found")
)

// Registry holds one Inventory per showtime. Its lock guards only the
// map; operations on an individual inventory take the inventory's own
// mutex, so showtimes never block each other.
type Registry struct {
	mu          sync.RWMutex
	inventories map[int64]*Inventory
}

func NewRegistry() *Registry {
	return &Registry{inventories: make(map[int64]*Inventory)}
}

// Create freezes layout into a new inventory for showtimeID.
func (r *Registry) Create(showtimeID int64, layout *domain.RoomLayout, holdTTL time.Duration) (*Inventory, error) {
	inv, err := New(showtimeID, layout, holdTTL)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.inventories[showtimeID]; ok {
		return nil, ErrShowtimeExists
	}
	r.inventories[showtimeID] = inv

	return inv, nil
}

func (r *Registry) Get(showtimeID int64) (*Inventory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.inventories[showtimeID]
	if !ok {
		return nil, ErrShowtimeNotFound
	}
	return inv, nil
}

// All returns the registered inventories, for the periodic sweep.
func (r *Registry) All() []*Inventory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Inventory, 0, len(r.inventories))
	for _, inv := range r.inventories {
		out = append(out, inv)
	}
	return out
}
