// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// Scheduler recomputes stored streaks once a day so rows nobody touched stay accurate.
type Scheduler struct {
	cron        *cron.Cron
	practice    *services.PracticeService
	leaderboard *services.LeaderboardService
}

// NewScheduler registers the nightly refresh on spec, evaluated in the practice timezone.
func NewScheduler(spec string, practice *services.PracticeService, leaderboard *services.LeaderboardService) (*Scheduler, error) {
	s := &Scheduler{
		cron:        cron.New(cron.WithLocation(practice.Location())),
		practice:    practice,
		leaderboard: leaderboard,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RefreshYesterday(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// RefreshYesterday refreshes every row dated yesterday and drops cached leaderboards.
func (s *Scheduler) RefreshYesterday(ctx context.Context) {
	yesterday := s.practice.Today().AddDate(0, 0, -1)
	started := time.Now()
	n, err := s.practice.RefreshDay(ctx, yesterday)
	if err != nil {
		utils.Sugar.Errorf("[cron] streak refresh for %s failed after %d rows: %v", yesterday.Format("2006-01-02"), n, err)
		return
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	utils.Sugar.Infof("[cron] streak refresh for %s changed %d rows in %s", yesterday.Format("2006-01-02"), n, time.Since(started))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	utils.Sugar.Infof("scheduler started (%s)", s.practice.Location())
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	utils.Sugar.Info("scheduler stopped")
}
