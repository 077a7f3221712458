package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"github.com/navia-app/navia/config"
	"github.com/navia-app/navia/jobs"
	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/routes"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// Globals is passed to every command's Run.
type Globals struct {
	ConfigPath string
}

// bootstrap loads config, initialises logging and opens the database.
func (g *Globals) bootstrap(migrate bool) (config.AppConfig, *gorm.DB, error) {
	cfg, err := config.Load(g.ConfigPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := utils.InitLogger(cfg.Log); err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	if migrate {
		cfg.Database.AutoMigrate = true
	}
	db, err := config.OpenDatabase(cfg, models.All()...)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, db, err := g.bootstrap(false)
	if err != nil {
		return err
	}
	defer utils.Logger.Sync() //nolint:errcheck

	rc := utils.NewRedis(cfg.Redis)
	if rc != nil {
		defer rc.Close()
	}
	deps := routes.NewDeps(cfg, db, rc)

	scheduler, err := jobs.NewScheduler(cfg.Practice.RefreshCron, deps.Practice, deps.Leaderboard)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.App.Port)
	return utils.GraceServer(ctx, ":"+cfg.App.Port, routes.SetupRouter(deps))
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Globals) error {
	_, _, err := g.bootstrap(true)
	if err != nil {
		return err
	}
	utils.Sugar.Info("migration complete")
	return nil
}

type StreaksRefreshCmd struct {
	User uint   `help:"Only refresh this user; all users with a row on the date otherwise."`
	Date string `help:"Day to refresh (YYYY-MM-DD); today when empty."`
}

func (c *StreaksRefreshCmd) Run(g *Globals) error {
	cfg, db, err := g.bootstrap(false)
	if err != nil {
		return err
	}
	practice := services.NewPracticeService(db, cfg.Location())
	ctx := context.Background()

	date := practice.Today()
	if c.Date != "" {
		if date, err = models.ParseDate(c.Date, practice.Location()); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	if c.User == 0 {
		n, err := practice.RefreshDay(ctx, date)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d streaks changed\n", models.DateKey(date), n)
		return nil
	}

	stat, err := practice.RefreshStreak(ctx, c.User, date)
	if err != nil {
		return err
	}
	if stat == nil {
		return fmt.Errorf("user %d has no row on %s", c.User, models.DateKey(date))
	}
	fmt.Printf("user %d %s: streak %d\n", c.User, stat.Date, stat.Streak)
	return nil
}

type ProblemsImportCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON array of problems (title, type, difficulty, time, space, prompt, solution)."`
}

func (c *ProblemsImportCmd) Run(g *Globals) error {
	_, db, err := g.bootstrap(false)
	if err != nil {
		return err
	}
	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := services.NewProblemService(db).ImportJSON(context.Background(), f)
	if err != nil {
		return err
	}
	fmt.Printf("%d problems imported\n", n)
	return nil
}
