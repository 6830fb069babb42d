package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinereserve/internal/domain"
	"cinereserve/internal/layout"
)

func rowDefs() []domain.RowDef {
	return []domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 5, Active: true},
		{Letter: "B", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 5, Active: true},
		{Letter: "C", Number: 3, Type: domain.SeatPremium, Multiplier: 2.0, SeatCount: 3, Active: false},
	}
}

func TestBuild_DropsInactiveRows(t *testing.T) {
	l, err := layout.Build(rowDefs())
	require.NoError(t, err)

	assert.Equal(t, 10, l.SeatCount())

	_, ok := l.Seat(domain.SeatID("C1"))
	assert.False(t, ok, "inactive row must contribute no seats")

	_, ok = l.Seat(domain.SeatID("A1"))
	assert.True(t, ok)
	_, ok = l.Seat(domain.SeatID("B5"))
	assert.True(t, ok)
}

func TestBuild_CanonicalOrder(t *testing.T) {
	// Rows supplied out of display order on purpose.
	rows := []domain.RowDef{
		{Letter: "B", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 2, Active: true},
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 2, Active: true},
	}

	l, err := layout.Build(rows)
	require.NoError(t, err)

	var ids []domain.SeatID
	for _, s := range l.Seats() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []domain.SeatID{"A1", "A2", "B1", "B2"}, ids)
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := layout.Build(rowDefs())
	require.NoError(t, err)
	b, err := layout.Build(rowDefs())
	require.NoError(t, err)

	assert.Equal(t, a.Seats(), b.Seats())
}

func TestBuild_DuplicateActiveLetter(t *testing.T) {
	rows := []domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 2, Active: true},
		{Letter: "A", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 2, Active: true},
	}

	_, err := layout.Build(rows)

	var dup layout.DuplicateRowError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "A", dup.Letter)
}

func TestBuild_DuplicateLetterAllowedWhenInactive(t *testing.T) {
	rows := []domain.RowDef{
		{Letter: "A", Number: 1, Type: domain.SeatNormal, Multiplier: 1.0, SeatCount: 2, Active: true},
		{Letter: "A", Number: 2, Type: domain.SeatVIP, Multiplier: 1.5, SeatCount: 2, Active: false},
	}

	l, err := layout.Build(rows)
	require.NoError(t, err)
	assert.Equal(t, 2, l.SeatCount())
}

func TestBuild_RejectsNonPositiveRows(t *testing.T) {
	cases := []struct {
		name string
		row  domain.RowDef
	}{
		{"zero seats", domain.RowDef{Letter: "A", Number: 1, Multiplier: 1.0, SeatCount: 0, Active: true}},
		{"negative multiplier", domain.RowDef{Letter: "A", Number: 1, Multiplier: -1, SeatCount: 3, Active: true}},
		{"inactive row still validated", domain.RowDef{Letter: "Z", Number: 9, Multiplier: 0, SeatCount: 3, Active: false}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := layout.Build([]domain.RowDef{tc.row})

			var bad layout.InvalidSeatCountError
			require.ErrorAs(t, err, &bad)
			assert.Equal(t, tc.row.Letter, bad.Letter)
		})
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	l, err := layout.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, l.SeatCount())
}
