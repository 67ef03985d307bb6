package menu

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// precio is cast to text on the way out and bound as text on the way
// in so the NUMERIC column round-trips through decimal without loss.
const dishColumns = `id, nombre, precio::text, imagen_url, fecha_creacion`

func scanDish(row interface{ Scan(dest ...any) error }) (*Dish, error) {
	var (
		d      Dish
		precio string
		creado *time.Time
	)
	if err := row.Scan(&d.ID, &d.Nombre, &precio, &d.ImagenURL, &creado); err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(precio)
	if err != nil {
		return nil, err
	}
	d.Precio = p
	d.FechaCreacion = creado
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --------------------------------------------------
// READS
// --------------------------------------------------

func (r *PostgresRepository) List(ctx context.Context) ([]Dish, error) {
	rows, err := r.db.Query(ctx, `SELECT `+dishColumns+` FROM menu`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dishes := make([]Dish, 0)
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, err
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (*Dish, error) {
	d, err := scanDish(r.db.QueryRow(ctx, `
		SELECT `+dishColumns+`
		FROM menu
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *PostgresRepository) GetByName(ctx context.Context, nombre string) (*Dish, error) {
	d, err := scanDish(r.db.QueryRow(ctx, `
		SELECT `+dishColumns+`
		FROM menu
		WHERE nombre = $1
	`, nombre))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// --------------------------------------------------
// MUTATIONS (single-statement transactions)
// --------------------------------------------------

func (r *PostgresRepository) Create(ctx context.Context, d *Dish) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO menu (nombre, precio, imagen_url)
		VALUES ($1, $2, $3)
		RETURNING id
	`, d.Nombre, d.Precio.StringFixed(2), d.ImagenURL).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) Update(ctx context.Context, d *Dish) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Existence is checked up front so "zero rows changed because the
	// values are identical" still reports success, not 404.
	var id int
	err = tx.QueryRow(ctx, `SELECT id FROM menu WHERE id = $1`, d.ID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE menu
		SET nombre = $1, precio = $2, imagen_url = $3
		WHERE id = $4
	`, d.Nombre, d.Precio.StringFixed(2), d.ImagenURL, d.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `DELETE FROM menu WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}
