package query

import (
	"errors"
)

var (
	ErrShowtimeNotFound = errors.New("showtime not found")
)
