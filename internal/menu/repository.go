package menu

import (
	"context"
	"errors"
)

var (
	// ErrNotFound signals a lookup or mutation against an id that is
	// not in the store.
	ErrNotFound = errors.New("elemento no encontrado")

	// ErrDuplicateName surfaces the unique index on menu(nombre).
	ErrDuplicateName = errors.New("ya existe un plato con ese nombre")
)

// Repository defines all database operations for dishes.
type Repository interface {
	List(ctx context.Context) ([]Dish, error)
	GetByID(ctx context.Context, id int) (*Dish, error)
	GetByName(ctx context.Context, nombre string) (*Dish, error)
	Create(ctx context.Context, d *Dish) error
	Update(ctx context.Context, d *Dish) error
	Delete(ctx context.Context, id int) error
}
