// Package bootstrap connects the runtime dependencies shared by the server and
// the command-line tools.
package bootstrap

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"learnhub/internal/cache"
	"learnhub/internal/config"
	"learnhub/internal/database"
	"learnhub/internal/middleware"
	"learnhub/internal/models"
	"learnhub/internal/seed"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo loads the built-in dashboard scenario into an empty
	// development database.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(cfg, db, time.Now()); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo scenario: %w", err)
		}
	}

	return db, r, nil
}

func seedDemo(cfg *config.Config, db *gorm.DB, now time.Time) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") {
		middleware.Logger.Warn("demo seeding skipped outside development", slog.String("env", cfg.Env))
		return nil
	}

	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	sc, err := seed.BuiltIn(seed.DemoScenario)
	if err != nil {
		return err
	}
	factory, err := seed.NewFactory(db, seed.Options{})
	if err != nil {
		return err
	}
	seeded, err := factory.Apply(sc, now)
	if err != nil {
		return err
	}
	middleware.Logger.Info("demo scenario seeded",
		slog.String("scenario", sc.Name),
		slog.Int("users", len(seeded.Users)),
		slog.Int("courses", len(seeded.Courses)),
	)
	return nil
}
