package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/navia-app/navia/config"
	"github.com/navia-app/navia/models"
)

// newTestDB opens a private in-memory database with every table migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.AppConfig{
		Database: config.DatabaseConfig{Driver: "sqlite", URI: ":memory:", AutoMigrate: true},
		Log:      config.LogConfig{Level: "error"},
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Name: username, LoginMethod: models.LoginPassword}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// fixedPractice returns a service whose "today" is the given date in UTC.
func fixedPractice(db *gorm.DB, today string) *PracticeService {
	svc := NewPracticeService(db, time.UTC)
	now, err := time.ParseInLocation(models.DateLayout, today, time.UTC)
	if err != nil {
		panic(err)
	}
	now = now.Add(15 * time.Hour)
	svc.now = func() time.Time { return now }
	return svc
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

func seedStats(t *testing.T, db *gorm.DB, userID uint, rows ...models.DailyStat) {
	t.Helper()
	for i := range rows {
		rows[i].UserID = userID
		require.NoError(t, db.Create(&rows[i]).Error)
	}
}
