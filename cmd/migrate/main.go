package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gocart/storefront/pkg/config"
	"github.com/gocart/storefront/pkg/db"
	"github.com/gocart/storefront/pkg/logger"
	"github.com/gocart/storefront/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

// target is set for commands that operate on a live cart database.
type target struct {
	db      *sql.DB
	dialect string
}

type command struct {
	needsDB bool
	run     func(ctx context.Context, opts options, t target) (string, error)
}

var commands = map[string]command{
	"create": {run: func(_ context.Context, opts options, _ target) (string, error) {
		if opts.name == "" {
			return "", fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return "", err
		}
		return "created migration: " + path, nil
	}},
	"validate": {run: func(_ context.Context, opts options, _ target) (string, error) {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return "", err
		}
		return "migration validation passed", nil
	}},
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": {needsDB: true, run: func(ctx context.Context, opts options, t target) (string, error) {
		if opts.version == "" {
			return "", fmt.Errorf("missing -version for version command")
		}
		if err := migrate.MigrateToVersion(ctx, t.db, t.dialect, opts.dir, opts.version); err != nil {
			return "", err
		}
		return "migrated to " + opts.version, nil
	}},
}

func gooseCommand(name string) command {
	return command{needsDB: true, run: func(ctx context.Context, opts options, t target) (string, error) {
		if err := migrate.Run(ctx, t.db, t.dialect, opts.dir, name); err != nil {
			return "", fmt.Errorf("goose %s: %w", name, err)
		}
		return "", nil
	}}
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func main() {
	_ = godotenv.Load()

	cmdName := flag.String("cmd", "up", "migration command: "+commandNames())
	var opts options
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory (cart and profile tables)")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(*cmdName, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmdName, err)
		os.Exit(1)
	}
}

func run(cmdName string, opts options) error {
	cmd, ok := commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown -cmd value %q (want %s)", cmdName, commandNames())
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": cmdName,
		"dir": opts.dir,
	})

	var t target
	if cmd.needsDB {
		dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(ctx, "resource not working: database", err)
			return err
		}
		defer dbClient.Close()

		if t.db, err = dbClient.DB().DB(); err != nil {
			return fmt.Errorf("sql handle: %w", err)
		}
		t.dialect = dbClient.Dialect()
		ctx = logg.WithField(ctx, "dialect", t.dialect)
	}

	logg.Info(ctx, "migrate ready")
	out, err := cmd.run(ctx, opts, t)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}
