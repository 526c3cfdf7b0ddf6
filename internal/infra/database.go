package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/log"
)

// NewDatabaseClient connects the pgx pool and runs pending migrations
// for the documents table.
func NewDatabaseClient(c context.Context, dbConfig config.Database) *pgxpool.Pool {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewDatabaseClient").
		Logger()

	postgresURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbConfig.Username,
		dbConfig.Password,
		dbConfig.Host,
		int(dbConfig.Port),
		dbConfig.Name,
	)

	logger = logger.With().Str(log.KeyProcess, "initializing pgx config").Logger()
	logger.Info().Msg("initializing pgx config")
	pgxConfig, err := pgxpool.ParseConfig(postgresURL)
	if err != nil {
		err = fmt.Errorf("failed creating pgx config with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	pgxConfig.MaxConns = int32(dbConfig.MaxConnections)
	pgxConfig.MinConns = int32(dbConfig.MinConnections)
	logger.Info().Msg("initialized pgx config")

	logger = logger.With().Str(log.KeyProcess, "creating connection pool").Logger()
	logger.Info().Msg("creating connection pool")
	pool, err := pgxpool.NewWithConfig(c, pgxConfig)
	if err != nil {
		err = fmt.Errorf("failed creating connection pool with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	if err = pool.Ping(c); err != nil {
		err = fmt.Errorf("failed ping db with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("created connection pool")

	logger = logger.With().Str(log.KeyProcess, "running migrations").Logger()
	logger.Info().Msg("running migrations")
	db := stdlib.OpenDBFromPool(pool)
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		err = fmt.Errorf("failed creating postgres migrate driver with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	migration, err := migrate.NewWithDatabaseInstance(dbConfig.MigrationPath, dbConfig.Name, driver)
	if err != nil {
		err = fmt.Errorf("failed initializing migration with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	err = migration.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		err = fmt.Errorf("failed migration up with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("ran migrations")

	return pool
}
