// Command seed runs the database seeder for Shapediary.
package main

import (
	"flag"
	"log"

	"shapediary/internal/config"
	"shapediary/internal/database"
	"shapediary/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	perUser := flag.Int("entries", 10, "Number of diary entries per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d entries each, clean=%v\n", *numUsers, *perUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(database.DB)
	if err := s.Run(seed.Options{
		NumUsers:       *numUsers,
		EntriesPerUser: *perUser,
		ShouldClean:    *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
