package inventory

import (
	"fmt"

	"github.com/google/uuid"

	"cinereserve/internal/domain"
)

type EmptyLayoutError struct {
	ShowtimeID int64
}

func (e EmptyLayoutError) Error() string {
	return fmt.Sprintf("showtime %d: layout has no seats", e.ShowtimeID)
}

// SeatsUnavailableError names exactly the seats a hold request could
// not acquire, so the caller can offer alternatives.
type SeatsUnavailableError struct {
	SeatIDs []domain.SeatID
}

func (e SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %v", e.SeatIDs)
}

// SeatsNotFoundError reports seat identifiers that do not exist in the
// frozen layout. Unknown seats are caller misuse, not contention.
type SeatsNotFoundError struct {
	SeatIDs []domain.SeatID
}

func (e SeatsNotFoundError) Error() string {
	return fmt.Sprintf("seats not found: %v", e.SeatIDs)
}

// OwnershipError means a session tried to release or settle a seat it
// does not hold.
type OwnershipError struct {
	SeatID domain.SeatID
	HeldBy uuid.UUID
	Status domain.SeatStatus
}

func (e OwnershipError) Error() string {
	if e.Status == domain.SeatSold {
		return fmt.Sprintf("seat %s is already sold", e.SeatID)
	}
	return fmt.Sprintf("seat %s is held by another session", e.SeatID)
}
