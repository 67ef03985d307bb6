package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// --------------------------------------------------
// Fake image host
// --------------------------------------------------

type fakeImageHost struct {
	baseURL   string
	uploads   int
	deletes   []string
	uploadErr error
	deleteErr error
}

func newFakeImageHost() *fakeImageHost {
	return &fakeImageHost{baseURL: "https://img.test"}
}

func (f *fakeImageHost) Upload(ctx context.Context, folder, filename string, body io.Reader) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	f.uploads++
	publicID := fmt.Sprintf("%s/img%d", folder, f.uploads)
	url := fmt.Sprintf("%s/upload/v1/%s.png", f.baseURL, publicID)
	return url, publicID, nil
}

func (f *fakeImageHost) Delete(ctx context.Context, publicID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, publicID)
	return nil
}

func (f *fakeImageHost) ExtractID(url string) string {
	prefix := f.baseURL + "/upload/v1/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(url, prefix), ".png")
}

// failingRepository wraps the in-memory store to inject errors.
type failingRepository struct {
	Repository
	listErr error
	getErr  error
}

func (r *failingRepository) List(ctx context.Context) ([]Dish, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Repository.List(ctx)
}

func (r *failingRepository) GetByID(ctx context.Context, id int) (*Dish, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.Repository.GetByID(ctx, id)
}

func newTestService() (*Service, *InMemoryRepository, *fakeImageHost) {
	repo := NewInMemoryRepository()
	images := newFakeImageHost()
	return NewService(repo, images, zerolog.Nop()), repo, images
}

func urlInput(nombre, precio, url string) DishInput {
	return DishInput{Nombre: nombre, Precio: precio, Image: ImageSource{URL: url}}
}

// --------------------------------------------------
// Create
// --------------------------------------------------

func TestCreateDishWithURL(t *testing.T) {
	svc, repo, _ := newTestService()

	resp := svc.Create(context.Background(), urlInput("Taco", "3.5", "https://x.com/a.jpg"))
	if resp.Code != 201 {
		t.Fatalf("expected 201, got %d (%s)", resp.Code, resp.Message)
	}
	if resp.Data != nil {
		t.Fatalf("create must not echo data, got %v", resp.Data)
	}

	dish, err := repo.GetByName(context.Background(), "Taco")
	if err != nil {
		t.Fatalf("dish not persisted: %v", err)
	}
	if dish.ImagenURL != "https://x.com/a.jpg" {
		t.Fatalf("imagen_url = %q", dish.ImagenURL)
	}
}

func TestCreateDishDuplicateName(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if resp := svc.Create(ctx, urlInput("Pizza", "9.99", "https://x.com/p.jpg")); resp.Code != 201 {
		t.Fatalf("first create failed: %d", resp.Code)
	}
	resp := svc.Create(ctx, urlInput("Pizza", "8.50", "https://x.com/q.jpg"))
	if resp.Code != 409 {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestCreateDishNegativePriceNeverReachesCollaborators(t *testing.T) {
	svc, repo, images := newTestService()

	resp := svc.Create(context.Background(), DishInput{
		Nombre: "Taco",
		Precio: "-1",
		Image:  ImageSource{File: strings.NewReader("img"), Filename: "a.png"},
	})
	if resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if images.uploads != 0 {
		t.Fatalf("upload attempted despite invalid price")
	}
	dishes, _ := repo.List(context.Background())
	if len(dishes) != 0 {
		t.Fatalf("store reached despite invalid price")
	}
}

func TestCreateDishMissingFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []DishInput{
		{Precio: "3.5", Image: ImageSource{URL: "https://x.com/a.jpg"}},
		{Nombre: "Taco", Image: ImageSource{URL: "https://x.com/a.jpg"}},
		{Nombre: "   ", Precio: "3.5", Image: ImageSource{URL: "https://x.com/a.jpg"}},
	}
	for i, in := range cases {
		if resp := svc.Create(ctx, in); resp.Code != 400 {
			t.Fatalf("case %d: expected 400, got %d", i, resp.Code)
		}
	}
}

func TestCreateDishWithoutImageSource(t *testing.T) {
	svc, _, _ := newTestService()

	resp := svc.Create(context.Background(), DishInput{Nombre: "Taco", Precio: "3.5"})
	if resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateDishUploadsFile(t *testing.T) {
	svc, repo, images := newTestService()

	resp := svc.Create(context.Background(), DishInput{
		Nombre: "Mole",
		Precio: "12",
		Image:  ImageSource{File: strings.NewReader("bytes"), Filename: "mole.webp"},
	})
	if resp.Code != 201 {
		t.Fatalf("expected 201, got %d (%s)", resp.Code, resp.Message)
	}
	if images.uploads != 1 {
		t.Fatalf("expected one upload, got %d", images.uploads)
	}

	dish, _ := repo.GetByName(context.Background(), "Mole")
	if dish == nil || !strings.HasPrefix(dish.ImagenURL, images.baseURL) {
		t.Fatalf("dish did not get the hosted URL: %+v", dish)
	}
}

func TestCreateDishRejectsBadExtension(t *testing.T) {
	svc, _, images := newTestService()

	resp := svc.Create(context.Background(), DishInput{
		Nombre: "Taco",
		Precio: "3.5",
		Image:  ImageSource{File: strings.NewReader("x"), Filename: "menu.pdf"},
	})
	if resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if images.uploads != 0 {
		t.Fatalf("upload attempted for rejected extension")
	}
}

func TestCreateDishUploadFailure(t *testing.T) {
	svc, repo, images := newTestService()
	images.uploadErr = errors.New("bucket unavailable")

	resp := svc.Create(context.Background(), DishInput{
		Nombre: "Taco",
		Precio: "3.5",
		Image:  ImageSource{File: strings.NewReader("x"), Filename: "a.png"},
	})
	if resp.Code != 500 {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	dishes, _ := repo.List(context.Background())
	if len(dishes) != 0 {
		t.Fatalf("dish persisted despite upload failure")
	}
}

// --------------------------------------------------
// Update
// --------------------------------------------------

func createDish(t *testing.T, svc *Service, repo *InMemoryRepository, nombre, url string) *Dish {
	t.Helper()
	if resp := svc.Create(context.Background(), urlInput(nombre, "5", url)); resp.Code != 201 {
		t.Fatalf("setup create failed: %d (%s)", resp.Code, resp.Message)
	}
	dish, err := repo.GetByName(context.Background(), nombre)
	if err != nil {
		t.Fatalf("setup lookup failed: %v", err)
	}
	return dish
}

func TestUpdateDishRetainsPreviousImage(t *testing.T) {
	svc, repo, _ := newTestService()
	dish := createDish(t, svc, repo, "Taco", "https://x.com/a.jpg")

	resp := svc.Update(context.Background(), fmt.Sprint(dish.ID), DishInput{
		Nombre: "Taco Grande",
		Precio: "6.5",
	})
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Message)
	}

	updated, _ := repo.GetByID(context.Background(), dish.ID)
	if updated.ImagenURL != "https://x.com/a.jpg" {
		t.Fatalf("previous image not retained: %q", updated.ImagenURL)
	}
	if updated.Nombre != "Taco Grande" {
		t.Fatalf("nombre not replaced: %q", updated.Nombre)
	}
}

func TestUpdateDishWithoutAnyImage(t *testing.T) {
	svc, _, _ := newTestService()

	// id validates fine but there is no record, hence no previous
	// image to fall back on
	resp := svc.Update(context.Background(), "99", DishInput{
		Nombre: "Taco",
		Precio: "3.5",
	})
	if resp.Code != 400 {
		t.Fatalf("expected 400, got %d (%s)", resp.Code, resp.Message)
	}
}

func TestUpdateDishReplacesHostedImage(t *testing.T) {
	svc, repo, images := newTestService()

	// seed with an image that lives on the known host
	hostedURL, hostedID, _ := images.Upload(context.Background(), "menu_images", "a.png", strings.NewReader("x"))
	dish := createDish(t, svc, repo, "Taco", hostedURL)

	resp := svc.Update(context.Background(), fmt.Sprint(dish.ID), DishInput{
		Nombre: "Taco",
		Precio: "5",
		Image:  ImageSource{File: strings.NewReader("new"), Filename: "b.jpg"},
	})
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", resp.Code, resp.Message)
	}
	if len(images.deletes) != 1 || images.deletes[0] != hostedID {
		t.Fatalf("expected exactly one delete of %q, got %v", hostedID, images.deletes)
	}
}

func TestUpdateDishNewURLKeepsOldHostedImage(t *testing.T) {
	svc, repo, images := newTestService()

	hostedURL, _, _ := images.Upload(context.Background(), "menu_images", "a.png", strings.NewReader("x"))
	dish := createDish(t, svc, repo, "Taco", hostedURL)

	resp := svc.Update(context.Background(), fmt.Sprint(dish.ID), urlInput("Taco", "5", "https://elsewhere.com/b.jpg"))
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(images.deletes) != 0 {
		t.Fatalf("old image deleted despite caller pointing elsewhere: %v", images.deletes)
	}
}

func TestUpdateDishNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	resp := svc.Update(context.Background(), "42", urlInput("Taco", "3.5", "https://x.com/a.jpg"))
	if resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUpdateDishProceedsWhenFetchFails(t *testing.T) {
	inner := NewInMemoryRepository()
	repo := &failingRepository{Repository: inner}
	images := newFakeImageHost()
	svc := NewService(repo, images, zerolog.Nop())

	dish := createDish(t, svc, inner, "Taco", "https://x.com/a.jpg")
	repo.getErr = errors.New("connection reset")

	resp := svc.Update(context.Background(), fmt.Sprint(dish.ID),
		urlInput("Taco", "4.5", "https://x.com/b.jpg"))
	if resp.Code != 200 {
		t.Fatalf("fetch failure blocked the update: %d (%s)", resp.Code, resp.Message)
	}

	updated, err := inner.GetByID(context.Background(), dish.ID)
	if err != nil {
		t.Fatalf("lookup after update: %v", err)
	}
	if updated.ImagenURL != "https://x.com/b.jpg" || updated.Precio.String() != "4.5" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestUpdateDishInvalidID(t *testing.T) {
	svc, _, _ := newTestService()

	resp := svc.Update(context.Background(), "abc", urlInput("Taco", "3.5", "https://x.com/a.jpg"))
	if resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

// --------------------------------------------------
// Delete
// --------------------------------------------------

func TestDeleteDishCleansUpHostedImage(t *testing.T) {
	svc, repo, images := newTestService()

	hostedURL, hostedID, _ := images.Upload(context.Background(), "menu_images", "a.png", strings.NewReader("x"))
	dish := createDish(t, svc, repo, "Taco", hostedURL)

	resp := svc.Delete(context.Background(), fmt.Sprint(dish.ID))
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(images.deletes) != 1 || images.deletes[0] != hostedID {
		t.Fatalf("expected exactly one delete of %q, got %v", hostedID, images.deletes)
	}
	if _, err := repo.GetByID(context.Background(), dish.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("dish still in store after delete")
	}
}

func TestDeleteDishForeignImageNotTouched(t *testing.T) {
	svc, repo, images := newTestService()
	dish := createDish(t, svc, repo, "Taco", "https://elsewhere.com/a.jpg")

	resp := svc.Delete(context.Background(), fmt.Sprint(dish.ID))
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if len(images.deletes) != 0 {
		t.Fatalf("delete issued for a foreign URL: %v", images.deletes)
	}
}

func TestDeleteDishCleanupFailureIsSwallowed(t *testing.T) {
	svc, repo, images := newTestService()

	hostedURL, _, _ := images.Upload(context.Background(), "menu_images", "a.png", strings.NewReader("x"))
	dish := createDish(t, svc, repo, "Taco", hostedURL)
	images.deleteErr = errors.New("host down")

	resp := svc.Delete(context.Background(), fmt.Sprint(dish.ID))
	if resp.Code != 200 {
		t.Fatalf("cleanup failure changed the outcome: %d", resp.Code)
	}
}

func TestDeleteDishProceedsWhenFetchFails(t *testing.T) {
	inner := NewInMemoryRepository()
	repo := &failingRepository{Repository: inner}
	images := newFakeImageHost()
	svc := NewService(repo, images, zerolog.Nop())

	hostedURL, _, _ := images.Upload(context.Background(), "menu_images", "a.png", strings.NewReader("x"))
	dish := createDish(t, svc, inner, "Taco", hostedURL)
	repo.getErr = errors.New("connection reset")

	resp := svc.Delete(context.Background(), fmt.Sprint(dish.ID))
	if resp.Code != 200 {
		t.Fatalf("fetch failure blocked the delete: %d (%s)", resp.Code, resp.Message)
	}
	if _, err := inner.GetByID(context.Background(), dish.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("dish still in store after delete")
	}
	// with the previous image unknown no hosted cleanup can be issued
	if len(images.deletes) != 0 {
		t.Fatalf("unexpected image deletes: %v", images.deletes)
	}
}

func TestDeleteDishNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if resp := svc.Delete(context.Background(), "7"); resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func TestGetDishInvalidID(t *testing.T) {
	svc, _, _ := newTestService()

	if resp := svc.Get(context.Background(), "cero"); resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if resp := svc.Get(context.Background(), "-1"); resp.Code != 400 {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetDishNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if resp := svc.Get(context.Background(), "123"); resp.Code != 404 {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListDishesStoreError(t *testing.T) {
	repo := &failingRepository{
		Repository: NewInMemoryRepository(),
		listErr:    errors.New("connection reset"),
	}
	svc := NewService(repo, newFakeImageHost(), zerolog.Nop())

	resp := svc.List(context.Background())
	if resp.Code != 500 {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestListDishes(t *testing.T) {
	svc, repo, _ := newTestService()
	createDish(t, svc, repo, "Taco", "https://x.com/a.jpg")
	createDish(t, svc, repo, "Mole", "https://x.com/b.jpg")

	resp := svc.List(context.Background())
	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	dishes, ok := resp.Data.([]Dish)
	if !ok || len(dishes) != 2 {
		t.Fatalf("expected two dishes, got %v", resp.Data)
	}
}
