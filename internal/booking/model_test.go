package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, date, clock string) Slot {
	t.Helper()
	s, err := ParseSlot(date, clock)
	require.NoError(t, err)
	return s
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("2024-01-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 19:00", s.String())

	_, err = ParseSlot("01/01/2024", "19:00")
	assert.Error(t, err)

	_, err = ParseSlot("2024-01-01", "7pm")
	assert.Error(t, err)
}

func TestSlotOf_MatchesParsedSlot(t *testing.T) {
	parsed := mustSlot(t, "2024-01-01", "19:00")
	fromDriver := slotOf(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(0, 1, 1, 19, 0, 0, 0, time.UTC),
	)
	assert.Equal(t, parsed, fromDriver)
}

func TestConflictPolicy_Collides(t *testing.T) {
	seven := mustSlot(t, "2024-01-01", "19:00")
	sevenThirty := mustSlot(t, "2024-01-01", "19:30")
	eight := mustSlot(t, "2024-01-01", "20:00")
	nine := mustSlot(t, "2024-01-01", "21:00")

	exact := ConflictPolicy{Mode: ConflictExact, SlotDuration: 2 * time.Hour}
	assert.True(t, exact.Collides(seven, seven))
	assert.False(t, exact.Collides(seven, sevenThirty))
	assert.False(t, exact.Collides(seven, eight))

	overlap := ConflictPolicy{Mode: ConflictOverlap, SlotDuration: 2 * time.Hour}
	assert.True(t, overlap.Collides(seven, seven))
	assert.True(t, overlap.Collides(seven, eight))
	assert.True(t, overlap.Collides(eight, seven))
	assert.False(t, overlap.Collides(seven, nine))

	zero := ConflictPolicy{Mode: ConflictOverlap}
	assert.True(t, zero.Collides(seven, seven))
	assert.False(t, zero.Collides(seven, sevenThirty))
}

func TestParseConflictMode(t *testing.T) {
	m, err := ParseConflictMode("overlap")
	require.NoError(t, err)
	assert.Equal(t, ConflictOverlap, m)

	_, err = ParseConflictMode("fuzzy")
	assert.Error(t, err)
}

func TestStatus_Holds(t *testing.T) {
	assert.True(t, StatusPending.Holds())
	assert.True(t, StatusConfirmed.Holds())
	assert.False(t, StatusCancelled.Holds())
	assert.False(t, StatusCompleted.Holds())
}
