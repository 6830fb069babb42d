package reservation

import "errors"

var (
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrRateLimited      = errors.New("rate limited")
)
