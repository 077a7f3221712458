package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDailyStat_GoalMet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goal, answered int
		want           bool
	}{
		{0, 0, false},
		{0, 5, false},
		{3, 2, false},
		{3, 3, true},
		{3, 7, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DailyStat{Goal: tt.goal, Answered: tt.answered}.GoalMet(), "goal=%d answered=%d", tt.goal, tt.answered)
	}
}

func TestDailyStatPatch_Apply(t *testing.T) {
	t.Parallel()

	stat := DailyStat{Goal: 3, Answered: 1, Score: 10, Streak: 4}
	cols := DailyStatPatch{Answered: intPtr(3), Score: intPtr(0)}.Apply(&stat)

	assert.Equal(t, map[string]interface{}{"answered": 3, "score": 0}, cols)
	assert.Equal(t, DailyStat{Goal: 3, Answered: 3, Score: 0, Streak: 4}, stat)

	assert.Empty(t, DailyStatPatch{}.Apply(&stat))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*3600)
	d, err := ParseDate("2024-02-29", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, "2024-02-29", DateKey(d))

	_, err = ParseDate("2023-02-29", loc)
	assert.Error(t, err)
	_, err = ParseDate("29/02/2024", loc)
	assert.Error(t, err)
}

func TestApplicationStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []ApplicationStatus{StatusApplied, StatusInterviewing, StatusOffer, StatusRejected, StatusWithdrawn} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("ghosted").Valid())
	assert.False(t, ApplicationStatus("").Valid())
}
