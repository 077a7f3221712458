package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navia-app/navia/config"
	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/services"
)

func TestScheduler_RefreshYesterday(t *testing.T) {
	cfg := config.AppConfig{
		Database: config.DatabaseConfig{Driver: "sqlite", URI: ":memory:", AutoMigrate: true},
		Log:      config.LogConfig{Level: "error"},
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)

	practice := services.NewPracticeService(db, time.UTC)
	today := practice.Today()
	user := models.User{Username: "alice"}
	require.NoError(t, db.Create(&user).Error)
	for _, s := range []models.DailyStat{
		{UserID: user.ID, Date: models.DateKey(today.AddDate(0, 0, -2)), Goal: 1, Answered: 1},
		{UserID: user.ID, Date: models.DateKey(today.AddDate(0, 0, -1)), Goal: 1, Answered: 2},
	} {
		require.NoError(t, db.Create(&s).Error)
	}

	s, err := NewScheduler("5 0 * * *", practice, nil)
	require.NoError(t, err)
	s.RefreshYesterday(context.Background())

	stat, err := practice.Get(context.Background(), user.ID, today.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, 2, stat.Streak)

	older, err := practice.Get(context.Background(), user.ID, today.AddDate(0, 0, -2))
	require.NoError(t, err)
	assert.Zero(t, older.Streak, "only yesterday is refreshed")
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler("every tuesday", services.NewPracticeService(nil, time.UTC), nil)
	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler("@hourly", services.NewPracticeService(nil, time.UTC), nil)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
