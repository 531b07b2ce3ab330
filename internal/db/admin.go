package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// adminDatabase is the maintenance database used for CREATE/DROP DATABASE,
// which cannot run against the database being created or dropped.
const adminDatabase = "postgres"

// CreateDatabase creates a new database on the configured server.
func CreateDatabase(ctx context.Context, config Config, name string) error {
	conn, err := pgx.Connect(ctx, config.WithDatabase(adminDatabase).DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %s`, pgx.Identifier{name}.Sanitize())); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase drops a database, terminating any backends still attached
// to it first so the drop cannot hang on a leaked connection.
func DropDatabase(ctx context.Context, config Config, name string) error {
	conn, err := pgx.Connect(ctx, config.WithDatabase(adminDatabase).DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to admin database: %w", err)
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()`,
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to terminate connections to %s: %w", name, err)
	}

	if _, err := conn.Exec(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, pgx.Identifier{name}.Sanitize())); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	return nil
}
