package catalog

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrShowtimeExists = errors.New("showtime already exists")
	ErrNoActiveRows   = errors.New("room has no active rows")
)
