package session

import (
	"errors"
	"fmt"
	"time"

	"cinereserve/internal/domain"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoSeats         = errors.New("no seats selected")
	ErrDuplicateSeats  = errors.New("duplicate seats in request")
)

// InvalidStateError means an operation was attempted on a session in a
// terminal state.
type InvalidStateError struct {
	Status domain.SessionStatus
}

func (e InvalidStateError) Error() string {
	return fmt.Sprintf("session is %s", e.Status)
}

// ExpiredError means the hold window closed before the session could
// be confirmed. The session is terminal and its seats were released.
type ExpiredError struct {
	ExpiredAt time.Time
}

func (e ExpiredError) Error() string {
	return fmt.Sprintf("session expired at %s", e.ExpiredAt.Format(time.RFC3339))
}
