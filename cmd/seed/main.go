// Command main loads dashboard fixtures into the configured database.
package main

import (
	"flag"
	"log"
	"time"

	"learnhub/internal/config"
	"learnhub/internal/database"
	"learnhub/internal/models"
	"learnhub/internal/seed"
)

func main() {
	scenarioFile := flag.String("file", "", "Path to a scenario YAML file")
	builtIn := flag.String("scenario", seed.DemoScenario, "Name of a built-in scenario (ignored with -file)")
	randomLearners := flag.Int("random", 0, "Number of extra learners with random enrollments and attempts")
	seedValue := flag.Int64("seed", 0, "Seed for generated names (0 picks one at random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	var sc *seed.Scenario
	if *scenarioFile != "" {
		sc, err = seed.LoadFile(*scenarioFile)
	} else {
		sc, err = seed.BuiltIn(*builtIn)
	}
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	factory, err := seed.NewFactory(db, seed.Options{Seed: *seedValue})
	if err != nil {
		log.Fatalf("Failed to create factory: %v", err)
	}

	now := time.Now().UTC()
	seeded, err := factory.Apply(sc, now)
	if err != nil {
		log.Fatalf("Scenario %q failed: %v", sc.Name, err)
	}
	log.Printf("Scenario %q: %d users, %d courses", sc.Name, len(seeded.Users), len(seeded.Courses))

	if *randomLearners > 0 {
		courses := make([]*models.Course, 0, len(seeded.Courses))
		for _, c := range seeded.Courses {
			courses = append(courses, c)
		}
		users, err := factory.RandomLearners(*randomLearners, courses, now)
		if err != nil {
			log.Fatalf("Random learners failed: %v", err)
		}
		log.Printf("Created %d random learners", len(users))
	}

	log.Printf("Done. Every seeded account uses the password %q", seed.DefaultPassword)
}
