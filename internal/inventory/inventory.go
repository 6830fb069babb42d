// Package inventory is the authority for per-showtime seat
// availability. Each Inventory serializes its own mutations behind a
// mutex; inventories for different showtimes never contend.
package inventory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
)

type seatState struct {
	status     domain.SeatStatus
	sessionID  uuid.UUID
	expiresAt  time.Time
	ticketCode string
}

// Inventory tracks the free/held/sold state of every seat of one
// showtime. The layout snapshot is frozen at creation time, so later
// edits to the room definition cannot drift the seat set mid-sale.
type Inventory struct {
	showtimeID int64
	layout     *domain.RoomLayout
	holdTTL    time.Duration

	mu    sync.Mutex
	seats map[domain.SeatID]*seatState
}

// New builds an inventory with every layout seat initialized free.
func New(showtimeID int64, layout *domain.RoomLayout, holdTTL time.Duration) (*Inventory, error) {
	if layout == nil || layout.SeatCount() == 0 {
		return nil, EmptyLayoutError{ShowtimeID: showtimeID}
	}

	seats := make(map[domain.SeatID]*seatState, layout.SeatCount())
	for _, s := range layout.Seats() {
		seats[s.ID] = &seatState{status: domain.SeatFree}
	}

	return &Inventory{
		showtimeID: showtimeID,
		layout:     layout,
		holdTTL:    holdTTL,
		seats:      seats,
	}, nil
}

func (inv *Inventory) ShowtimeID() int64          { return inv.showtimeID }
func (inv *Inventory) Layout() *domain.RoomLayout { return inv.layout }
func (inv *Inventory) HoldTTL() time.Duration     { return inv.holdTTL }

// free reports whether a seat can be handed to a new hold at instant
// now. A held seat whose expiry has been reached (expiresAt <= now)
// counts as free; the sweep merely has not reached it yet.
func (st *seatState) free(now time.Time) bool {
	switch st.status {
	case domain.SeatFree:
		return true
	case domain.SeatHeld:
		return !st.expiresAt.After(now)
	default:
		return false
	}
}

// Hold claims all requested seats for sessionID, or none of them.
//
// The whole request is evaluated against a single now: either every
// seat is free (expired holds included) and all transition to held
// with the same expiry, or the call fails with SeatsUnavailableError
// naming exactly the conflicting seats. Seat identifiers absent from
// the layout fail with SeatsNotFoundError before any contention check.
//
// Returns the hold's expiry on success.
func (inv *Inventory) Hold(seatIDs []domain.SeatID, sessionID uuid.UUID, now time.Time) (time.Time, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	var missing, taken []domain.SeatID
	for _, id := range seatIDs {
		st, ok := inv.seats[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if !st.free(now) {
			taken = append(taken, id)
		}
	}
	if len(missing) > 0 {
		return time.Time{}, SeatsNotFoundError{SeatIDs: missing}
	}
	if len(taken) > 0 {
		return time.Time{}, SeatsUnavailableError{SeatIDs: taken}
	}

	expiresAt := now.Add(inv.holdTTL)
	for _, id := range seatIDs {
		st := inv.seats[id]
		st.status = domain.SeatHeld
		st.sessionID = sessionID
		st.expiresAt = expiresAt
	}

	return expiresAt, nil
}

// Release returns seats held by sessionID to free.
//
// Releasing an already-free seat is a silent success so duplicate
// cleanup calls stay harmless. A seat held by a different session or
// already sold is an OwnershipError, and the whole call then mutates
// nothing.
func (inv *Inventory) Release(seatIDs []domain.SeatID, sessionID uuid.UUID) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, id := range seatIDs {
		st, ok := inv.seats[id]
		if !ok {
			return SeatsNotFoundError{SeatIDs: []domain.SeatID{id}}
		}
		switch st.status {
		case domain.SeatFree:
		case domain.SeatHeld:
			if st.sessionID != sessionID {
				return OwnershipError{SeatID: id, HeldBy: st.sessionID, Status: st.status}
			}
		case domain.SeatSold:
			return OwnershipError{SeatID: id, Status: st.status}
		}
	}

	for _, id := range seatIDs {
		st := inv.seats[id]
		if st.status == domain.SeatHeld && st.sessionID == sessionID {
			*st = seatState{status: domain.SeatFree}
		}
	}

	return nil
}

// Settle irreversibly transitions seats held by sessionID to sold,
// recording the ticket code. Any seat not currently held by the
// session is an OwnershipError and nothing is mutated.
func (inv *Inventory) Settle(seatIDs []domain.SeatID, sessionID uuid.UUID, ticketCode string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, id := range seatIDs {
		st, ok := inv.seats[id]
		if !ok {
			return SeatsNotFoundError{SeatIDs: []domain.SeatID{id}}
		}
		if st.status != domain.SeatHeld || st.sessionID != sessionID {
			return OwnershipError{SeatID: id, HeldBy: st.sessionID, Status: st.status}
		}
	}

	for _, id := range seatIDs {
		st := inv.seats[id]
		*st = seatState{status: domain.SeatSold, ticketCode: ticketCode}
	}

	return nil
}

// ExpireStaleHolds frees every held seat whose expiry has been reached
// at now, and returns the seats freed. One clock value decides
// the whole sweep, so a multi-seat hold never ends up part expired.
func (inv *Inventory) ExpireStaleHolds(now time.Time) []domain.SeatID {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.expireLocked(now)
}

func (inv *Inventory) expireLocked(now time.Time) []domain.SeatID {
	var freed []domain.SeatID
	for _, s := range inv.layout.Seats() {
		st := inv.seats[s.ID]
		if st.status == domain.SeatHeld && !st.expiresAt.After(now) {
			*st = seatState{status: domain.SeatFree}
			freed = append(freed, s.ID)
		}
	}
	return freed
}

// Availability returns a point-in-time copy of every seat's state.
// Stale holds are swept before the snapshot is taken, so an expired
// hold never shows as unavailable to a new buyer.
func (inv *Inventory) Availability(now time.Time) map[domain.SeatID]domain.SeatState {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.expireLocked(now)

	out := make(map[domain.SeatID]domain.SeatState, len(inv.seats))
	for id, st := range inv.seats {
		out[id] = domain.SeatState{
			Status:     st.status,
			SessionID:  st.sessionID,
			ExpiresAt:  st.expiresAt,
			TicketCode: st.ticketCode,
		}
	}
	return out
}

// Seats returns the full seat listing in canonical layout order, for
// the display layer.
func (inv *Inventory) Seats(now time.Time) []domain.SeatWithState {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.expireLocked(now)

	out := make([]domain.SeatWithState, 0, len(inv.seats))
	for _, s := range inv.layout.Seats() {
		st := inv.seats[s.ID]
		out = append(out, domain.SeatWithState{
			Seat: s,
			State: domain.SeatState{
				Status:     st.status,
				SessionID:  st.sessionID,
				ExpiresAt:  st.expiresAt,
				TicketCode: st.ticketCode,
			},
		})
	}
	return out
}

// Counts returns aggregate availability counters.
func (inv *Inventory) Counts(now time.Time) domain.ShowtimeCounts {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.expireLocked(now)

	c := domain.ShowtimeCounts{Total: len(inv.seats)}
	for _, st := range inv.seats {
		switch st.status {
		case domain.SeatFree:
			c.Free++
		case domain.SeatHeld:
			c.Held++
		case domain.SeatSold:
			c.Sold++
		}
	}
	return c
}
