package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gokatarajesh/accounts-service/internal/config"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	var dir string

	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply or inspect the users schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "db/migrations", "directory containing migration files")

	run := func(name string, fn func(db *sql.DB, dir string) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: fmt.Sprintf("Run goose %s", name),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, migrationDir, err := open(dir)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := fn(db, migrationDir); err != nil {
					return fmt.Errorf("migrations %s: %w", name, err)
				}
				log.Info().Str("command", name).Msg("migrations finished")
				return nil
			},
		}
	}

	root.AddCommand(
		run("up", func(db *sql.DB, dir string) error { return goose.Up(db, dir) }),
		run("down", func(db *sql.DB, dir string) error { return goose.Down(db, dir) }),
		run("status", func(db *sql.DB, dir string) error { return goose.Status(db, dir) }),
	)

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("migrator failed")
	}
}

// open parses the Postgres settings, connects through pgx's database/sql
// driver and resolves the migration directory.
func open(dir string) (*sql.DB, string, error) {
	var pg config.Postgres
	if err := env.Parse(&pg); err != nil {
		return nil, "", fmt.Errorf("parse postgres config: %w", err)
	}
	if pg.User == "" || pg.Database == "" {
		return nil, "", fmt.Errorf("PG_USER and PG_DATABASE environment variables are required")
	}

	migrationDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve migration directory %q: %w", dir, err)
	}
	if _, err := os.Stat(migrationDir); os.IsNotExist(err) {
		return nil, "", fmt.Errorf("migration directory %s does not exist", migrationDir)
	}

	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Str("migration_dir", migrationDir).
		Msg("connected to database")

	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, migrationDir, nil
}
