package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/harvestlink-backend/pkg/config"
	"github.com/angelmondragon/harvestlink-backend/pkg/db"
	"github.com/angelmondragon/harvestlink-backend/pkg/logger"
	"github.com/angelmondragon/harvestlink-backend/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version string
}

type command struct {
	help string
	// offline commands run without config or a database connection.
	offline bool
	run     func(ctx context.Context, sqlDB *sql.DB, opts options) error
}

var commands = map[string]command{
	"up":     {help: "apply every pending migration", run: gooseCommand("up")},
	"down":   {help: "roll back the latest migration", run: gooseCommand("down")},
	"status": {help: "print applied and pending migrations", run: gooseCommand("status")},
	"version": {help: "migrate up or down to -version", run: func(ctx context.Context, sqlDB *sql.DB, opts options) error {
		if opts.version == "" {
			return errors.New("-version is required")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.version)
	}},
	"create": {help: "write a new migration named -name into -dir", offline: true, run: func(_ context.Context, _ *sql.DB, opts options) error {
		if opts.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	}},
	"validate": {help: "check -dir, or the embedded set when -dir is empty", offline: true, run: func(_ context.Context, _ *sql.DB, opts options) error {
		if opts.dir == "" {
			return migrate.ValidateEmbedded()
		}
		return migrate.ValidateDir(opts.dir)
	}},
}

func gooseCommand(name string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, _ options) error {
		return migrate.Run(ctx, sqlDB, name)
	}
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	name := flag.String("cmd", "up", "one of: "+strings.Join(commandNames(), ", "))
	flag.StringVar(&opts.dir, "dir", "", "migrations directory for create/validate (create defaults to "+migrate.DefaultDir+")")
	flag.StringVar(&opts.name, "name", "", "migration name for create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for version")
	flag.Usage = usage
	flag.Parse()

	cmd, ok := commands[*name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *name)
		usage()
		os.Exit(2)
	}
	ctx = logg.WithField(ctx, "cmd", *name)

	if cmd.offline {
		if *name == "create" && opts.dir == "" {
			opts.dir = migrate.DefaultDir
		}
		exitOnError(ctx, logg, *name, cmd.run(ctx, nil, opts))
		return
	}

	cfg, err := config.Load()
	exitOnError(ctx, logg, "load config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *name})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOnError(ctx, logg, "connect database", err)
	defer dbClient.Close()
	sqlDB, err := dbClient.SQL()
	exitOnError(ctx, logg, "open sql handle", err)

	exitOnError(ctx, logg, *name, cmd.run(ctx, sqlDB, opts))
	logg.Info(ctx, "migrate finished")
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate -cmd <command> [flags]")
	for _, name := range commandNames() {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", name, commands[name].help)
	}
	flag.PrintDefaults()
}

func exitOnError(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
