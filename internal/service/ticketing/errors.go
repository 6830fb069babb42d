package ticketing

import "errors"

var (
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrShowtimeNotFound = errors.New("showtime not found")
)
