package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Folder under which every dish image lives on the image host.
const imageFolder = "menu_images"

// ImageHost is the external image store the service delegates to.
// ExtractID returns "" for URLs that do not belong to the host.
type ImageHost interface {
	Upload(ctx context.Context, folder, filename string, body io.Reader) (url, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
	ExtractID(url string) string
}

// ImageSource carries the image signal of a create or update request:
// a new binary payload, a caller-supplied URL, or neither.
type ImageSource struct {
	File     io.Reader
	Filename string
	URL      string
}

// DishInput is the raw request payload before validation. Nombre and
// Precio stay untyped because JSON and form bodies deliver them in
// different shapes.
type DishInput struct {
	Nombre any
	Precio any
	Image  ImageSource
}

type Service struct {
	repo   Repository
	images ImageHost
	log    zerolog.Logger
}

func NewService(repo Repository, images ImageHost, log zerolog.Logger) *Service {
	return &Service{repo: repo, images: images, log: log}
}

// --------------------------------------------------
// List all dishes
// --------------------------------------------------
func (s *Service) List(ctx context.Context) *Response {
	dishes, err := s.repo.List(ctx)
	if err != nil {
		return fail(http.StatusInternalServerError,
			"Error al obtener los datos del menú: "+err.Error())
	}
	return &Response{Code: http.StatusOK, Data: dishes, Message: "OK"}
}

// --------------------------------------------------
// Get one dish by id
// --------------------------------------------------
func (s *Service) Get(ctx context.Context, rawID string) *Response {
	id, err := ValidateID(rawID)
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}

	dish, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return fail(http.StatusNotFound, "Elemento no encontrado")
	case err != nil:
		return fail(http.StatusInternalServerError,
			"Error al obtener el elemento: "+err.Error())
	}
	return &Response{Code: http.StatusOK, Data: dish, Message: "OK"}
}

// --------------------------------------------------
// Create dish
// --------------------------------------------------
func (s *Service) Create(ctx context.Context, in DishInput) *Response {
	if isMissing(in.Nombre) {
		return fail(http.StatusBadRequest, "El nombre del plato es requerido")
	}
	if isMissing(in.Precio) {
		return fail(http.StatusBadRequest, "El precio es requerido")
	}

	nombre := SanitizeName(in.Nombre)
	if nombre == "" {
		return fail(http.StatusBadRequest, "El nombre del plato no puede estar vacío")
	}

	// Advisory pre-check for a descriptive message; the unique index
	// on menu(nombre) is the authority under concurrent creates.
	if existing, err := s.repo.GetByName(ctx, nombre); err == nil && existing != nil {
		return s.duplicate(nombre)
	}

	precio, err := ValidatePrice(in.Precio)
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}

	imagenURL, resp := s.resolveImage(ctx, in.Image, "")
	if resp != nil {
		return resp
	}

	dish := &Dish{Nombre: nombre, Precio: precio, ImagenURL: imagenURL}
	if err := s.repo.Create(ctx, dish); err != nil {
		if errors.Is(err, ErrDuplicateName) {
			return s.duplicate(nombre)
		}
		return fail(http.StatusInternalServerError,
			"Error de base de datos al crear el plato: "+err.Error())
	}
	return &Response{Code: http.StatusCreated, Message: "Plato creado exitosamente"}
}

// --------------------------------------------------
// Update dish (full replace, no partial updates)
// --------------------------------------------------
func (s *Service) Update(ctx context.Context, rawID string, in DishInput) *Response {
	id, err := ValidateID(rawID)
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}
	if isMissing(in.Nombre) {
		return fail(http.StatusBadRequest, "El nombre del plato es requerido")
	}
	if isMissing(in.Precio) {
		return fail(http.StatusBadRequest, "El precio es requerido")
	}

	nombre := SanitizeName(in.Nombre)
	if nombre == "" {
		return fail(http.StatusBadRequest, "El nombre del plato no puede estar vacío")
	}

	precio, err := ValidatePrice(in.Precio)
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}

	// A failed lookup only means no previous image is known; the
	// update itself still proceeds.
	previous := ""
	if current, err := s.repo.GetByID(ctx, id); err == nil && current != nil {
		previous = current.ImagenURL
	}

	imagenURL, resp := s.resolveImage(ctx, in.Image, previous)
	if resp != nil {
		return resp
	}

	dish := &Dish{ID: id, Nombre: nombre, Precio: precio, ImagenURL: imagenURL}
	if err := s.repo.Update(ctx, dish); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fail(http.StatusNotFound, "Elemento no encontrado")
		case errors.Is(err, ErrDuplicateName):
			return s.duplicate(nombre)
		}
		return fail(http.StatusInternalServerError,
			"Error de base de datos al actualizar el plato: "+err.Error())
	}
	return &Response{Code: http.StatusOK, Message: "Plato actualizado exitosamente"}
}

// --------------------------------------------------
// Delete dish
// --------------------------------------------------
func (s *Service) Delete(ctx context.Context, rawID string) *Response {
	id, err := ValidateID(rawID)
	if err != nil {
		return fail(http.StatusBadRequest, err.Error())
	}

	// Fetched first so the hosted image can be cleaned up afterwards;
	// a failure here never blocks the deletion.
	previous := ""
	if current, err := s.repo.GetByID(ctx, id); err == nil && current != nil {
		previous = current.ImagenURL
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(http.StatusNotFound, "Elemento no encontrado")
		}
		return fail(http.StatusInternalServerError,
			"Error de base de datos al eliminar el plato: "+err.Error())
	}

	if previous != "" {
		s.cleanupImage(ctx, previous)
	}
	return &Response{Code: http.StatusOK, Message: "Plato eliminado exitosamente"}
}

// resolveImage settles the dish image for a create or update. A new
// upload wins over a caller-supplied URL, which wins over the previous
// value. When an upload replaces a previously hosted image the old one
// is removed best-effort. Returns the image URL, or a failure envelope
// the caller must return as-is.
func (s *Service) resolveImage(ctx context.Context, src ImageSource, previous string) (string, *Response) {
	switch {
	case src.File != nil:
		if err := ValidateImageExtension(src.Filename); err != nil {
			return "", fail(http.StatusBadRequest, err.Error())
		}
		url, _, err := s.images.Upload(ctx, imageFolder, src.Filename, src.File)
		if err != nil {
			return "", fail(http.StatusInternalServerError,
				"Error al subir imagen: "+err.Error())
		}
		if previous != "" {
			s.cleanupImage(ctx, previous)
		}
		return url, nil

	case src.URL != "":
		// The caller is pointing elsewhere on purpose; the previous
		// hosted image is left alone.
		url, err := ValidateURL(src.URL)
		if err != nil {
			return "", fail(http.StatusBadRequest, err.Error())
		}
		return url, nil

	case previous != "":
		return previous, nil

	default:
		return "", fail(http.StatusBadRequest, "Debe proporcionar una imagen (archivo o URL)")
	}
}

// cleanupImage best-effort deletes a hosted image that is no longer
// referenced. Failures are logged and never change the CRUD outcome.
func (s *Service) cleanupImage(ctx context.Context, url string) {
	publicID := s.images.ExtractID(url)
	if publicID == "" {
		return
	}
	if err := s.images.Delete(ctx, publicID); err != nil {
		s.log.Warn().
			Err(err).
			Str("public_id", publicID).
			Msg("no se pudo eliminar la imagen huérfana")
	}
}

func (s *Service) duplicate(nombre string) *Response {
	return fail(http.StatusConflict,
		fmt.Sprintf("Ya existe un plato con el nombre '%s' en el menú", nombre))
}

// isMissing reports a required field that is absent or blank. Numeric
// zero still counts as present.
func isMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
