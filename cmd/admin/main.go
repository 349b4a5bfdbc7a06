// Command admin manages moderator roles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/models"
	"murmur/internal/repository"

	"github.com/google/uuid"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/admin <promote|demote> <user-id> | list")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	profiles := repository.NewProfileRepository(db)
	ctx := context.Background()

	cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0)))
	if cmd == "list" {
		ids, err := profiles.ListByRole(ctx, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		for _, id := range ids {
			log.Println(id)
		}
		log.Printf("%d admin(s)", len(ids))
		return nil
	}

	if flag.NArg() < 2 {
		return usage()
	}
	id, err := uuid.Parse(flag.Arg(1))
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", flag.Arg(1), err)
	}

	switch cmd {
	case "promote":
		if err := profiles.GrantRole(ctx, id, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote: %w", err)
		}
		log.Printf("granted admin to %s", id)
	case "demote":
		removed, err := profiles.RevokeRole(ctx, id, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("demote: %w", err)
		}
		if !removed {
			log.Printf("%s was not an admin", id)
			return nil
		}
		log.Printf("revoked admin from %s", id)
	default:
		return usage()
	}
	return nil
}
