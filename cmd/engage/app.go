package main

import (
	"fmt"

	"github.com/mroshb/engage_app/internal/clock"
	"github.com/mroshb/engage_app/internal/config"
	"github.com/mroshb/engage_app/internal/database"
	"github.com/mroshb/engage_app/internal/notify"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/internal/services"
	"github.com/mroshb/engage_app/pkg/logger"
	"gorm.io/gorm"
)

// app holds everything the subcommands share.
type app struct {
	cfg       *config.Config
	db        *gorm.DB
	profiles  *services.ProfileService
	credits   *services.CreditService
	streaks   *services.StreakService
	goals     *services.GoalService
	tasks     *services.TaskService
	checkouts *services.CheckoutService
}

func bootstrap() (*app, error) {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			return nil, fmt.Errorf("production security validation failed: %w", err)
		}
		logger.Info("Production security validation passed")
	}

	boundary, err := clock.NewDayBoundary(cfg.GoalDayPolicy, cfg.AppTimezone, cfg.GoalResetHour)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.SeedStoreItems(db); err != nil {
		logger.Warn("Failed to seed store items", "error", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.BotToken != "" && cfg.AdminChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.BotToken, cfg.AdminChatID)
		if err != nil {
			logger.Warn("Telegram notifier disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	clk := clock.System()
	profileRepo := repositories.NewProfileRepository(db)

	a := &app{cfg: cfg, db: db}
	a.credits = services.NewCreditService(repositories.NewCreditRepository(db))
	a.profiles = services.NewProfileService(profileRepo)
	a.streaks = services.NewStreakService(profileRepo, a.credits, clk, cfg.StreakBonusCredits)
	a.goals = services.NewGoalService(repositories.NewGoalRepository(db), a.credits, a.streaks, clk, boundary, cfg.GoalCompletionCredits)
	a.tasks = services.NewTaskService(repositories.NewTaskRepository(db), a.credits)
	a.checkouts = services.NewCheckoutService(repositories.NewCheckoutRepository(db), a.profiles, a.credits, notifier, cfg.PublicBaseURL)

	logger.Info("Application initialised",
		"env", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"goal_day_policy", boundary.Policy(),
	)
	return a, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Sync()
}
