package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/navia-app/navia/models"
)

func TestStreakFrom(t *testing.T) {
	t.Parallel()

	met := func(d string) models.DailyStat { return models.DailyStat{Date: d, Goal: 3, Answered: 3} }
	unmet := func(d string) models.DailyStat { return models.DailyStat{Date: d, Goal: 3, Answered: 1} }

	tests := []struct {
		name string
		rows []models.DailyStat
		want int
	}{
		{name: "empty", rows: nil, want: 0},
		{name: "single met", rows: []models.DailyStat{met("2024-03-01")}, want: 1},
		{name: "single unmet", rows: []models.DailyStat{unmet("2024-03-01")}, want: 0},
		{
			name: "head unmet looks back",
			rows: []models.DailyStat{unmet("2024-03-03"), met("2024-03-02"), met("2024-03-01")},
			want: 2,
		},
		{
			name: "several unmet at head",
			rows: []models.DailyStat{unmet("2024-03-05"), unmet("2024-03-04"), met("2024-03-03"), unmet("2024-03-02"), met("2024-03-01")},
			want: 1,
		},
		{
			name: "run stops at first miss",
			rows: []models.DailyStat{met("2024-03-04"), met("2024-03-03"), unmet("2024-03-02"), met("2024-03-01")},
			want: 2,
		},
		{
			name: "calendar gap does not break",
			rows: []models.DailyStat{met("2024-03-10"), met("2024-03-01")},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, streakFrom(tt.rows))
		})
	}
}

func TestPracticeS_CalculateStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rows   []models.DailyStat
		target string
		want   int
	}{
		{
			name:   "no rows",
			target: "2024-03-03",
			want:   0,
		},
		{
			name: "in progress day reports previous",
			rows: []models.DailyStat{
				{Date: "2024-03-01", Goal: 3, Answered: 3},
				{Date: "2024-03-02", Goal: 3, Answered: 3},
				{Date: "2024-03-03", Goal: 3, Answered: 0},
			},
			target: "2024-03-03",
			want:   2,
		},
		{
			name: "look back equals earlier day",
			rows: []models.DailyStat{
				{Date: "2024-03-01", Goal: 5, Answered: 5},
				{Date: "2024-03-02", Goal: 5, Answered: 2},
			},
			target: "2024-03-02",
			want:   1,
		},
		{
			name:   "zero goal only",
			rows:   []models.DailyStat{{Date: "2024-03-01", Goal: 0, Answered: 10}},
			target: "2024-03-01",
			want:   0,
		},
		{
			name: "zero goal day is invisible",
			rows: []models.DailyStat{
				{Date: "2024-03-01", Goal: 2, Answered: 2},
				{Date: "2024-03-02", Goal: 0, Answered: 0},
				{Date: "2024-03-03", Goal: 2, Answered: 4},
			},
			target: "2024-03-03",
			want:   2,
		},
		{
			name: "rows after target ignored",
			rows: []models.DailyStat{
				{Date: "2024-03-01", Goal: 2, Answered: 2},
				{Date: "2024-03-02", Goal: 2, Answered: 0},
				{Date: "2024-03-03", Goal: 2, Answered: 2},
			},
			target: "2024-03-01",
			want:   1,
		},
		{
			name: "missing target row",
			rows: []models.DailyStat{
				{Date: "2024-03-01", Goal: 2, Answered: 2},
			},
			target: "2024-03-05",
			want:   1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := newTestDB(t)
			user := newTestUser(t, db, "alice")
			seedStats(t, db, user.ID, tt.rows...)
			svc := fixedPractice(db, "2024-03-10")

			got, err := svc.CalculateStreak(context.Background(), user.ID, day(t, tt.target))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPracticeS_CalculateStreakDefaultsToToday(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID,
		models.DailyStat{Date: "2024-03-09", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-10", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-11", Goal: 1, Answered: 1},
	)
	svc := fixedPractice(db, "2024-03-10")

	got, err := svc.CalculateStreak(context.Background(), user.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestPracticeS_StreaksAreIsolatedPerUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	seedStats(t, db, alice.ID, models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 1})
	seedStats(t, db, bob.ID, models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 0})
	svc := fixedPractice(db, "2024-03-01")

	a, err := svc.CalculateStreak(context.Background(), alice.ID, time.Time{})
	require.NoError(t, err)
	b, err := svc.CalculateStreak(context.Background(), bob.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)
}

func TestPracticeS_GetOrCreate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     []models.DailyStat
		date     string
		wantGoal int
	}{
		{name: "first day has no goal", date: "2024-03-02", wantGoal: 0},
		{
			name:     "goal carries forward",
			rows:     []models.DailyStat{{Date: "2024-03-01", Goal: 5}},
			date:     "2024-03-02",
			wantGoal: 5,
		},
		{
			name: "most recent non-zero goal wins",
			rows: []models.DailyStat{
				{Date: "2024-02-01", Goal: 3},
				{Date: "2024-02-10", Goal: 7},
				{Date: "2024-02-20", Goal: 0},
			},
			date:     "2024-03-02",
			wantGoal: 7,
		},
		{
			name:     "later goals are not carried backwards",
			rows:     []models.DailyStat{{Date: "2024-03-05", Goal: 9}},
			date:     "2024-03-02",
			wantGoal: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := newTestDB(t)
			user := newTestUser(t, db, "alice")
			seedStats(t, db, user.ID, tt.rows...)
			svc := fixedPractice(db, "2024-03-10")

			latest, err := svc.LatestGoal(context.Background(), user.ID, day(t, tt.date))
			require.NoError(t, err)
			assert.Equal(t, tt.wantGoal, latest)

			stat, err := svc.GetOrCreate(context.Background(), user.ID, day(t, tt.date))
			require.NoError(t, err)
			assert.Equal(t, tt.date, stat.Date)
			assert.Equal(t, tt.wantGoal, stat.Goal)
			assert.Zero(t, stat.Answered)
			assert.Zero(t, stat.Score)
			assert.NotZero(t, stat.ID)
		})
	}
}

func TestPracticeS_GetOrCreateReturnsExisting(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID, models.DailyStat{Date: "2024-03-01", Goal: 4, Answered: 2, Score: 30})
	svc := fixedPractice(db, "2024-03-01")

	stat, err := svc.GetOrCreate(context.Background(), user.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 4, stat.Goal)
	assert.Equal(t, 2, stat.Answered)
	assert.Equal(t, 30, stat.Score)

	var n int64
	require.NoError(t, db.Model(&models.DailyStat{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPracticeS_InsertOrGetOnConflict(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	existing := models.DailyStat{Date: "2024-03-01", Goal: 4, Answered: 2}
	seedStats(t, db, user.ID, existing)

	stat, err := insertOrGet(db, &models.DailyStat{UserID: user.ID, Date: "2024-03-01", Goal: 9})
	require.NoError(t, err)
	assert.Equal(t, 4, stat.Goal)
	assert.Equal(t, 2, stat.Answered)
}

func TestPracticeS_GetOrCreateConcurrent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := fixedPractice(db, "2024-03-01")

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]uint, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stat, err := svc.GetOrCreate(context.Background(), user.ID, time.Time{})
			errs[i] = err
			if stat != nil {
				ids[i] = stat.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var n int64
	require.NoError(t, db.Model(&models.DailyStat{}).Where("user_id = ?", user.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestPracticeS_Get(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := fixedPractice(db, "2024-03-01")

	_, err := svc.Get(context.Background(), user.ID, time.Time{})
	require.ErrorIs(t, err, ErrStatNotFound)
}

func TestPracticeS_UpdateRoundTrip(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID, models.DailyStat{Date: "2024-03-01", Goal: 4, Answered: 2, Score: 30, Streak: 1})
	svc := fixedPractice(db, "2024-03-01")
	ctx := context.Background()

	answered := 6
	updated, err := svc.Update(ctx, user.ID, time.Time{}, models.DailyStatPatch{Answered: &answered})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Answered)

	got, err := svc.Get(ctx, user.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 6, got.Answered)
	assert.Equal(t, 4, got.Goal)
	assert.Equal(t, 30, got.Score)
	assert.Equal(t, 1, got.Streak)
}

func TestPracticeS_UpdateMissingRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	svc := fixedPractice(db, "2024-03-01")

	goal := 3
	_, err := svc.Update(context.Background(), user.ID, time.Time{}, models.DailyStatPatch{Goal: &goal})
	require.ErrorIs(t, err, ErrStatNotFound)

	var n int64
	require.NoError(t, db.Model(&models.DailyStat{}).Count(&n).Error)
	assert.Zero(t, n)
}

func countUpdates(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	n := new(int)
	err := db.Callback().Update().After("gorm:update").Register("test:count_updates", func(tx *gorm.DB) {
		if tx.Statement.Table == "daily_stats" && tx.Error == nil {
			*n++
		}
	})
	require.NoError(t, err)
	return n
}

func TestPracticeS_RefreshStreakIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID,
		models.DailyStat{Date: "2024-03-01", Goal: 2, Answered: 2},
		models.DailyStat{Date: "2024-03-02", Goal: 2, Answered: 3},
	)
	svc := fixedPractice(db, "2024-03-02")
	writes := countUpdates(t, db)
	ctx := context.Background()

	first, err := svc.RefreshStreak(ctx, user.ID, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 2, first.Streak)
	assert.Equal(t, 1, *writes)

	second, err := svc.RefreshStreak(ctx, user.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Streak)
	assert.Equal(t, 1, *writes, "second refresh must not write")
}

func TestPracticeS_RefreshStreakWithoutRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID, models.DailyStat{Date: "2024-03-01", Goal: 2, Answered: 2})
	svc := fixedPractice(db, "2024-03-02")

	stat, err := svc.RefreshStreak(context.Background(), user.ID, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, stat)

	var n int64
	require.NoError(t, db.Model(&models.DailyStat{}).Count(&n).Error)
	assert.EqualValues(t, 1, n, "refresh never creates rows")
}

func TestPracticeS_Mutations(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID, models.DailyStat{Date: "2024-03-01", Goal: 2, Answered: 2, Score: 10})
	svc := fixedPractice(db, "2024-03-02")
	ctx := context.Background()

	stat, err := svc.AddAnswers(ctx, user.ID, time.Time{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Goal, "goal carried forward")
	assert.Equal(t, 1, stat.Answered)
	assert.Equal(t, 1, stat.Streak, "today unfinished reports yesterday")

	stat, err = svc.AddAnswers(ctx, user.ID, time.Time{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Answered)
	assert.Equal(t, 2, stat.Streak)

	stat, err = svc.AddScore(ctx, user.ID, time.Time{}, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, stat.Score)

	stat, err = svc.SetGoal(ctx, user.ID, time.Time{}, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, stat.Goal)
	assert.Equal(t, 1, stat.Streak, "raised goal unfinishes today")

	_, err = svc.AddAnswers(ctx, user.ID, time.Time{}, 0)
	require.Error(t, err)
	_, err = svc.SetGoal(ctx, user.ID, time.Time{}, -1)
	require.Error(t, err)
}

func TestPracticeS_History(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	user := newTestUser(t, db, "alice")
	seedStats(t, db, user.ID,
		models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-02", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-03", Goal: 1, Answered: 1},
	)
	svc := fixedPractice(db, "2024-03-03")

	rows, err := svc.History(context.Background(), user.ID, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-03", rows[0].Date)
	assert.Equal(t, 3, rows[0].Streak)
	assert.Equal(t, "2024-03-02", rows[1].Date)
	assert.Equal(t, 2, rows[1].Streak)

	var stored models.DailyStat
	require.NoError(t, db.Where("user_id = ? AND date = ?", user.ID, "2024-03-03").First(&stored).Error)
	assert.Equal(t, 3, stored.Streak, "history persists refreshed streaks")
}

func TestPracticeS_RefreshDay(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	alice := newTestUser(t, db, "alice")
	bob := newTestUser(t, db, "bob")
	seedStats(t, db, alice.ID,
		models.DailyStat{Date: "2024-03-01", Goal: 1, Answered: 1},
		models.DailyStat{Date: "2024-03-02", Goal: 1, Answered: 1},
	)
	seedStats(t, db, bob.ID, models.DailyStat{Date: "2024-03-02", Goal: 1, Answered: 0})
	svc := fixedPractice(db, "2024-03-03")

	changed, err := svc.RefreshDay(context.Background(), day(t, "2024-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	stat, err := svc.Get(context.Background(), alice.ID, day(t, "2024-03-02"))
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Streak)
}

func TestPracticeS_TodayUsesLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+9", 9*3600)
	svc := NewPracticeService(nil, loc)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, "2024-03-02", models.DateKey(svc.Today()))
	assert.Equal(t, "2024-03-02", svc.dayKey(time.Time{}))
}
