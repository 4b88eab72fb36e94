// Command main runs the scheduled maintenance jobs once, outside the server.
package main

import (
	"flag"
	"log"
	"time"

	"learnhub/internal/cache"
	"learnhub/internal/config"
	"learnhub/internal/database"
	"learnhub/internal/jobs"
	"learnhub/internal/notifications"
	"learnhub/internal/photoid"
	"learnhub/internal/repository"
	"learnhub/internal/service"
)

func main() {
	nextOnly := flag.Bool("next", false, "Only print when the scheduled sweep runs next")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)

	svc := service.NewVerificationService(
		repository.NewVerificationRepository(db),
		repository.NewUserRepository(db),
		photoid.NewInspector(cfg.PhotoMaxUploadBytes()),
		notifications.NewVerificationNotifier(nil, cfg.PlatformName),
		cache.NewStore(cache.GetClient()),
		cfg.Policy(),
	)
	runner := jobs.NewRunner(svc)

	scheduler, err := jobs.NewScheduler(runner, cfg.ExpirySweepSchedule)
	if err != nil {
		log.Fatalf("Invalid EXPIRY_SWEEP_SCHEDULE: %v", err)
	}
	if !*nextOnly {
		runner.RunAll()
	}
	log.Printf("Next scheduled sweep: %s", scheduler.NextRun(time.Now().UTC()).Format(time.RFC3339))
}
