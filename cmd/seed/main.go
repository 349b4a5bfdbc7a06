// Command seed fills a development database with demo posts and engagement.
package main

import (
	"context"
	"flag"
	"log"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of profiles to create")
	numAdmins := flag.Int("admins", defaults.NumAdmins, "Number of administrator profiles to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	maxComments := flag.Int("comments", defaults.MaxCommentsPerPost, "Maximum comments per post")
	reportRatio := flag.Int("reports", defaults.ReportRatio, "Percentage of posts that receive a report")
	randSeed := flag.Int64("seed", 0, "Random seed for a reproducible run (0 uses the clock)")
	clean := flag.Bool("clean", false, "Clear existing data before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(db)

	if *clean {
		if err := seeder.ClearAll(ctx); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
	}

	summary, err := seeder.Run(ctx, seed.Options{
		NumUsers:           *numUsers,
		NumAdmins:          *numAdmins,
		NumPosts:           *numPosts,
		MaxCommentsPerPost: *maxComments,
		ReportRatio:        *reportRatio,
		RandSeed:           *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d profiles (%d admins), %d posts, %d reactions, %d comments, %d reports (%d resolved)",
		summary.Profiles, summary.Admins, summary.Posts, summary.Reactions,
		summary.Comments, summary.Reports, summary.Resolved)
}
