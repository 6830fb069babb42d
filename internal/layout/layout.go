// Package layout builds frozen seat maps from catalog row definitions.
package layout

import (
	"fmt"
	"sort"

	"cinereserve/internal/domain"
)

type DuplicateRowError struct {
	Letter string
}

func (e DuplicateRowError) Error() string {
	return fmt.Sprintf("duplicate active row letter: %s", e.Letter)
}

type InvalidSeatCountError struct {
	Letter     string
	SeatCount  int
	Multiplier float64
}

func (e InvalidSeatCountError) Error() string {
	return fmt.Sprintf(
		"row %s: seat count %d and multiplier %.2f must both be positive",
		e.Letter, e.SeatCount, e.Multiplier,
	)
}

// Build constructs a room layout from raw row definitions.
//
// Inactive rows are dropped without error; they contribute no seats.
// Every row, active or not, must carry a positive seat count and a
// positive multiplier so bad catalog data is rejected loudly. Two
// active rows sharing a letter is a DuplicateRowError.
//
// Build is pure: identical input yields an identical layout, with
// seats ordered by row number ascending then seat index ascending.
func Build(rows []domain.RowDef) (*domain.RoomLayout, error) {
	for _, r := range rows {
		if r.SeatCount <= 0 || r.Multiplier <= 0 {
			return nil, InvalidSeatCountError{
				Letter:     r.Letter,
				SeatCount:  r.SeatCount,
				Multiplier: r.Multiplier,
			}
		}
	}

	active := make([]domain.RowDef, 0, len(rows))
	letters := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if !r.Active {
			continue
		}
		if _, dup := letters[r.Letter]; dup {
			return nil, DuplicateRowError{Letter: r.Letter}
		}
		letters[r.Letter] = struct{}{}
		active = append(active, r)
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Number < active[j].Number
	})

	var seats []domain.Seat
	for _, r := range active {
		for i := 1; i <= r.SeatCount; i++ {
			seats = append(seats, domain.Seat{
				ID:         domain.NewSeatID(r.Letter, i),
				RowLetter:  r.Letter,
				RowNumber:  r.Number,
				Index:      i,
				Type:       r.Type,
				Multiplier: r.Multiplier,
			})
		}
	}

	return domain.NewRoomLayout(seats), nil
}
