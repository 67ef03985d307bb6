package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the shared pool and bootstraps the schema. Callers
// decide whether a failure is fatal; the API can keep serving in
// degraded mode without a store.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL no está definida")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("fallo de conexión a Postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("fallo al inicializar el esquema: %w", err)
	}

	return pool, nil
}

// initSchema creates the menu table on first start.
func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	menuTableSQL := `
		CREATE TABLE IF NOT EXISTS menu (
			id SERIAL PRIMARY KEY,
			nombre VARCHAR(100) NOT NULL,
			precio NUMERIC(8,2) NOT NULL CHECK (precio >= 0),
			imagen_url VARCHAR(500) NOT NULL,
			fecha_creacion TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := pool.Exec(ctx, menuTableSQL); err != nil {
		return err
	}

	// Byte-literal uniqueness, no case folding. The duplicate check in
	// the service is advisory; this index is the authority.
	uniqueNameSQL := `
		CREATE UNIQUE INDEX IF NOT EXISTS menu_nombre_key ON menu (nombre)
	`
	_, err := pool.Exec(ctx, uniqueNameSQL)
	return err
}
