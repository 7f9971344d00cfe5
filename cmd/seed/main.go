// Command seed fills the database with fixtures or a generated community.
package main

import (
	"flag"
	"log"

	"quorum/internal/config"
	"quorum/internal/database"
	"quorum/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numQuestions := flag.Int("questions", 100, "Number of questions to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixtures := flag.Bool("fixtures", false, "Load the small named fixture set instead of generated data")
	fast := flag.Bool("fast", false, "Hash passwords with the minimum bcrypt cost")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{SkipBcrypt: *fast})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if *fixtures {
		if _, err := seed.LoadFixtures(db); err != nil {
			log.Fatalf("Fixture loading failed: %v", err)
		}
		log.Println("Fixtures loaded: standard_user, editor, moderator, admin")
	} else {
		log.Printf("Target: %d users, %d questions, clean=%v", *numUsers, *numQuestions, *shouldClean)
		if err := s.SeedCommunity(seed.CommunityOptions{
			NumUsers:     *numUsers,
			NumQuestions: *numQuestions,
		}); err != nil {
			log.Fatalf("Community seeding failed: %v", err)
		}
	}

	log.Printf("All test users have the password: %s", seed.DefaultPassword)
}
