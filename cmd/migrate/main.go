// Command migrate runs schema operations for the engagement database.
//
//	migrate up              apply pending embedded SQL migrations
//	migrate auto            gorm AutoMigrate of the engagement models
//	migrate status          schema mode, migration ledger and missing tables
//	migrate down <version>  revert one applied migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"

	"murmur/internal/config"
	"murmur/internal/database"

	"gorm.io/gorm"
)

type command struct {
	args int
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up": {run: func(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
		return database.RunMigrations(ctx, db)
	}},
	"auto": {run: func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		cfg.DBSchemaMode = database.SchemaModeAuto
		return database.ApplySchema(ctx, db, cfg)
	}},
	"status": {run: func(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
		st, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		return writeStatus(os.Stdout, st)
	}},
	"down": {args: 1, run: func(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("version %q is not a number", args[0])
		}
		return database.RollbackMigration(ctx, db, version)
	}},
}

var errUsage = errors.New("usage: migrate <up|auto|status|down <version>>")

func main() {
	flag.Parse()
	name, cmd, err := lookup(flag.Args())
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{})
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	if err := cmd.run(context.Background(), db, cfg, flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %v", name, err)
	}
	log.Printf("%s: done", name)
}

// lookup resolves argv to a command and checks its argument count.
func lookup(argv []string) (string, command, error) {
	if len(argv) == 0 {
		return "", command{}, errUsage
	}
	cmd, ok := commands[argv[0]]
	if !ok || len(argv)-1 != cmd.args {
		return "", command{}, errUsage
	}
	return argv[0], cmd, nil
}

func writeStatus(w io.Writer, st *database.SchemaStatus) error {
	fmt.Fprintf(w, "mode %s (env %s): sql=%t automigrate=%t\n",
		st.Mode, st.Environment, st.WillRunSQL, st.WillRunAutoMigrate)

	if len(st.Ledger) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED\tCHECKSUM")
		for _, e := range st.Ledger {
			applied := "-"
			if e.AppliedAt != nil {
				applied = e.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			sum := e.Checksum
			if len(sum) > 12 {
				sum = sum[:12]
			}
			fmt.Fprintf(tw, "%06d\t%s\t%s\t%s\t%s\n", e.Version, e.Name, e.State, applied, sum)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, table := range st.MissingTables {
		fmt.Fprintf(w, "missing table: %s\n", table)
	}
	return nil
}
