package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

func TestLeaderboardS_Streaks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	carol := newTestUser(t, db, "carol")
	seedStats(t, db, alice.ID,
		models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-02", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-03", Goal: 1, Answered: 0},
	)
	seedStats(t, db, bob.ID,
		models.DailyStat{Date: "2024-03-01", Goal: 2, Answered: 1},
		models.DailyStat{Date: "2024-03-02", Goal: 2, Answered: 2},
		models.DailyStat{Date: "2024-03-03", Goal: 2, Answered: 2},
		models.DailyStat{Date: "2024-03-04", Goal: 2, Answered: 2},
	)
	seedStats(t, db, carol.ID, models.DailyStat{Date: "2024-03-03", Goal: 0, Answered: 9})

	lb := NewLeaderboardService(db, fixedPractice(db, "2024-03-03"), utils.NewCache(nil), time.Minute)
	entries, err := lb.Streaks(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 2, entries[0].Streak)
	assert.Equal(t, "bob", entries[1].Username)
	assert.Equal(t, 2, entries[1].Streak, "rows after today are not counted")

	entries, err = lb.Streaks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLeaderboardS_Points(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	carol := newTestUser(t, db, "carol")
	seedStats(t, db, alice.ID,
		models.DailyStat{Date: "2024-03-01", Score: 10},
		models.DailyStat{Date: "2024-03-02", Score: 15},
	)
	seedStats(t, db, bob.ID, models.DailyStat{Date: "2024-03-01", Score: 40})
	seedStats(t, db, carol.ID, models.DailyStat{Date: "2024-03-01", Score: 0})

	lb := NewLeaderboardService(db, fixedPractice(db, "2024-03-03"), utils.NewCache(nil), time.Minute)
	entries, err := lb.Points(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.EqualValues(t, 40, entries[0].TotalPoints)
	assert.Equal(t, alice.ID, entries[1].UserID)
	assert.EqualValues(t, 25, entries[1].TotalPoints)
}

func TestLeaderboardS_SkipsDeletedUsers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	seedStats(t, db, alice.ID, models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 1, Score: 5})
	require.NoError(t, db.Delete(&alice).Error)

	lb := NewLeaderboardService(db, fixedPractice(db, "2024-03-01"), nil, time.Minute)
	streaks, err := lb.Streaks(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, streaks)
	points, err := lb.Points(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, points)
}
