// Package memory is the in-process persistence collaborator: the
// default store when no database is configured, and the substitute
// used by tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
	"cinereserve/internal/repository"
)

var (
	_ repository.TicketStore   = (*Store)(nil)
	_ repository.CatalogStore  = (*Store)(nil)
	_ repository.CatalogWriter = (*Store)(nil)
	_ repository.AuditLog      = (*Store)(nil)
)

type roomRecord struct {
	cinema string
	name   string
	rows   []domain.RowDef
}

type Store struct {
	mu             sync.Mutex
	byCode         map[string]*domain.Ticket
	bySession      map[uuid.UUID]string
	rooms          map[int64]roomRecord
	showtimes      map[int64]domain.ShowtimeSnapshot
	events         []repository.SessionEvent
	nextRoomID     int64
	nextShowtimeID int64
}

func NewStore() *Store {
	return &Store{
		byCode:    make(map[string]*domain.Ticket),
		bySession: make(map[uuid.UUID]string),
		rooms:     make(map[int64]roomRecord),
		showtimes: make(map[int64]domain.ShowtimeSnapshot),
	}
}

func (s *Store) SaveTicket(_ context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byCode[t.Code]; ok {
		return repository.ErrCodeConflict
	}
	if _, ok := s.bySession[t.SessionID]; ok {
		return repository.ErrConflict
	}

	cp := *t
	cp.Seats = append([]domain.SeatID(nil), t.Seats...)
	s.byCode[t.Code] = &cp
	s.bySession[t.SessionID] = t.Code

	return nil
}

func (s *Store) TicketByCode(_ context.Context, code string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) TicketBySession(_ context.Context, sessionID uuid.UUID) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.bySession[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s.byCode[code]
	return &cp, nil
}

func (s *Store) DeleteTicket(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byCode[code]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.byCode, code)
	delete(s.bySession, t.SessionID)

	return nil
}

// PutRoom seeds a room's row definitions into the catalog side, for
// tests that want a fixed room id.
func (s *Store) PutRoom(roomID int64, rows []domain.RowDef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = roomRecord{rows: append([]domain.RowDef(nil), rows...)}
	if roomID > s.nextRoomID {
		s.nextRoomID = roomID
	}
}

// PutShowtime seeds a showtime's snapshot data.
func (s *Store) PutShowtime(snap domain.ShowtimeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showtimes[snap.ShowtimeID] = snap
	if snap.ShowtimeID > s.nextShowtimeID {
		s.nextShowtimeID = snap.ShowtimeID
	}
}

func (s *Store) CreateRoom(_ context.Context, cinema, name string, rows []domain.RowDef) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoomID++
	s.rooms[s.nextRoomID] = roomRecord{
		cinema: cinema,
		name:   name,
		rows:   append([]domain.RowDef(nil), rows...),
	}
	return s.nextRoomID, nil
}

func (s *Store) CreateShowtime(
	_ context.Context,
	roomID int64,
	movie string,
	startsAt time.Time,
	basePrice, surcharge float64,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	s.nextShowtimeID++
	s.showtimes[s.nextShowtimeID] = domain.ShowtimeSnapshot{
		ShowtimeID: s.nextShowtimeID,
		Cinema:     room.cinema,
		Room:       room.name,
		Movie:      movie,
		StartsAt:   startsAt,
		BasePrice:  basePrice,
		Surcharge:  surcharge,
	}
	return s.nextShowtimeID, nil
}

func (s *Store) RoomRows(_ context.Context, roomID int64) ([]domain.RowDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]domain.RowDef(nil), room.rows...), nil
}

func (s *Store) RecordSessionEvent(_ context.Context, ev repository.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *Store) RecordSeatStates(_ context.Context, _ int64, _ []domain.SeatWithState) error {
	// The in-memory inventory is already the live state; nothing to
	// write through.
	return nil
}

// SessionEvents returns the recorded audit trail, for tests.
func (s *Store) SessionEvents() []repository.SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.SessionEvent(nil), s.events...)
}

func (s *Store) Showtime(_ context.Context, showtimeID int64) (*domain.ShowtimeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.showtimes[showtimeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &snap, nil
}
