package httpgin

import (
	"time"
)

type CreateHoldRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,dive,required"`
}

type CreateHoldResponse struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionStatusResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type VerifyTicketRequest struct {
	Code    string `json:"code" binding:"required"`
	Payload string `json:"payload" binding:"required"`
}

type VerifyTicketResponse struct {
	Valid bool `json:"valid"`
}

type RowInput struct {
	Letter     string  `json:"letter" binding:"required"`
	Number     int     `json:"number" binding:"required,gt=0"`
	Type       string  `json:"type" binding:"required,oneof=normal vip premium"`
	Multiplier float64 `json:"multiplier" binding:"required,gt=0"`
	SeatCount  int     `json:"seat_count" binding:"required,gt=0"`
	Active     bool    `json:"active"`
}

type CreateRoomRequest struct {
	Cinema string     `json:"cinema" binding:"required"`
	Name   string     `json:"name" binding:"required"`
	Rows   []RowInput `json:"rows" binding:"required,min=1,dive"`
}

type CreateRoomResponse struct {
	RoomID int64 `json:"room_id"`
}

type CreateShowtimeRequest struct {
	RoomID    int64   `json:"room_id" binding:"required"`
	Movie     string  `json:"movie" binding:"required"`
	StartsAt  string  `json:"starts_at" binding:"required"`
	BasePrice float64 `json:"base_price" binding:"required,gt=0"`
	Surcharge float64 `json:"surcharge" binding:"gte=0"`
}

type CreateShowtimeResponse struct {
	ShowtimeID int64 `json:"showtime_id"`
}

type ErrorResponse struct {
	Error string   `json:"error"`
	Seats []string `json:"seats,omitempty"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
