package menu

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository keeps dishes in a map. It backs the tests and
// mirrors the store contract, including name uniqueness.
type InMemoryRepository struct {
	mu     sync.Mutex
	dishes map[int]*Dish
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		dishes: make(map[int]*Dish),
		nextID: 1,
	}
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dishes := make([]Dish, 0, len(r.dishes))
	for _, d := range r.dishes {
		dishes = append(dishes, *d)
	}
	return dishes, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (*Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dishes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *d
	return &out, nil
}

func (r *InMemoryRepository) GetByName(ctx context.Context, nombre string) (*Dish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.dishes {
		if d.Nombre == nombre {
			out := *d
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, d *Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.dishes {
		if existing.Nombre == d.Nombre {
			return ErrDuplicateName
		}
	}

	d.ID = r.nextID
	r.nextID++
	now := time.Now()
	d.FechaCreacion = &now

	stored := *d
	r.dishes[d.ID] = &stored
	return nil
}

func (r *InMemoryRepository) Update(ctx context.Context, d *Dish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.dishes[d.ID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range r.dishes {
		if existing.ID != d.ID && existing.Nombre == d.Nombre {
			return ErrDuplicateName
		}
	}

	stored := *d
	stored.FechaCreacion = current.FechaCreacion
	r.dishes[d.ID] = &stored
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dishes[id]; !ok {
		return ErrNotFound
	}
	delete(r.dishes, id)
	return nil
}
