package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SeatType string

const (
	SeatNormal  SeatType = "normal"
	SeatVIP     SeatType = "vip"
	SeatPremium SeatType = "premium"
)

type SeatStatus string

const (
	SeatFree SeatStatus = "free"
	SeatHeld SeatStatus = "held"
	SeatSold SeatStatus = "sold"
)

// SeatID is the room-unique seat identifier, row letter plus 1-based
// index within the row ("A1", "B12").
type SeatID string

func NewSeatID(letter string, index int) SeatID {
	return SeatID(fmt.Sprintf("%s%d", letter, index))
}

// RowDef is a raw row definition as supplied by the catalog source.
type RowDef struct {
	Letter     string   `json:"letter"`
	Number     int      `json:"number"`
	Type       SeatType `json:"type"`
	Multiplier float64  `json:"multiplier"`
	SeatCount  int      `json:"seat_count"`
	Active     bool     `json:"active"`
}

type Seat struct {
	ID         SeatID   `json:"id"`
	RowLetter  string   `json:"row_letter"`
	RowNumber  int      `json:"row_number"`
	Index      int      `json:"index"`
	Type       SeatType `json:"type"`
	Multiplier float64  `json:"multiplier"`
}

// RoomLayout is the frozen seat map of a room. Seats are ordered by row
// number ascending, then seat index ascending; this is the canonical
// iteration and display order everywhere downstream.
type RoomLayout struct {
	seats []Seat
	byID  map[SeatID]Seat
}

func NewRoomLayout(seats []Seat) *RoomLayout {
	byID := make(map[SeatID]Seat, len(seats))
	for _, s := range seats {
		byID[s.ID] = s
	}
	return &RoomLayout{seats: seats, byID: byID}
}

// Seats returns the seats in canonical order. Callers must not mutate
// the returned slice.
func (l *RoomLayout) Seats() []Seat { return l.seats }

func (l *RoomLayout) SeatCount() int { return len(l.seats) }

func (l *RoomLayout) Seat(id SeatID) (Seat, bool) {
	s, ok := l.byID[id]
	return s, ok
}

// SeatState is the current state of one seat within a showtime
// inventory. SessionID and ExpiresAt are set only while held;
// TicketCode only once sold.
type SeatState struct {
	Status     SeatStatus `json:"status"`
	SessionID  uuid.UUID  `json:"session_id,omitempty"`
	ExpiresAt  time.Time  `json:"expires_at,omitempty"`
	TicketCode string     `json:"ticket_code,omitempty"`
}

// SeatWithState pairs a layout seat with its inventory state for
// display listings.
type SeatWithState struct {
	Seat
	State SeatState `json:"state"`
}

// ShowtimeCounts are aggregate availability counters for one showtime.
type ShowtimeCounts struct {
	Free  int `json:"free"`
	Held  int `json:"held"`
	Sold  int `json:"sold"`
	Total int `json:"total"`
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionConfirmed SessionStatus = "confirmed"
	SessionExpired   SessionStatus = "expired"
	SessionCancelled SessionStatus = "cancelled"
)

// ShowtimeSnapshot is the showtime data copied into a ticket at
// issuance. It carries values, not references, so later edits to the
// showtime never alter issued tickets.
type ShowtimeSnapshot struct {
	ShowtimeID int64     `json:"showtime_id"`
	Cinema     string    `json:"cinema"`
	Room       string    `json:"room"`
	Movie      string    `json:"movie"`
	StartsAt   time.Time `json:"starts_at"`
	BasePrice  float64   `json:"base_price"`
	Surcharge  float64   `json:"surcharge"`
}

// Quote is a priced seat set. Total is always the exact sum of the
// per-seat prices, each already rounded to cents.
type Quote struct {
	PerSeat map[SeatID]float64 `json:"per_seat"`
	Total   float64            `json:"total"`
}

// Ticket is the immutable record of a completed purchase. Code is the
// human-reenterable confirmation code and the ticket's identity.
type Ticket struct {
	Code      string           `json:"code"`
	SessionID uuid.UUID        `json:"session_id"`
	Showtime  ShowtimeSnapshot `json:"showtime"`
	Seats     []SeatID         `json:"seats"`
	Total     float64          `json:"total"`
	QRPayload string           `json:"qr_payload"`
	IssuedAt  time.Time        `json:"issued_at"`
}
