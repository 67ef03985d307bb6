package menu

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

// NewHandler accepts a nil service: routes then answer 503 instead of
// crashing, so the API stays up while the store is unreachable.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) available(c *gin.Context) bool {
	if h.service != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, Response{
		Code:    http.StatusServiceUnavailable,
		Message: "Servicio no disponible. Error de conexión a la base de datos",
	})
	return false
}

func reply(c *gin.Context, resp *Response) {
	c.JSON(resp.Code, resp)
}

// --------------------------------------------------
// GET /menu
// --------------------------------------------------
func (h *Handler) List(c *gin.Context) {
	if !h.available(c) {
		return
	}
	reply(c, h.service.List(c.Request.Context()))
}

// --------------------------------------------------
// GET /menu/:id
// --------------------------------------------------
func (h *Handler) Get(c *gin.Context) {
	if !h.available(c) {
		return
	}
	reply(c, h.service.Get(c.Request.Context(), c.Param("id")))
}

// --------------------------------------------------
// POST /menu  (JSON or multipart with an "imagen" file)
// --------------------------------------------------
func (h *Handler) Create(c *gin.Context) {
	if !h.available(c) {
		return
	}
	in, err := bindDishInput(c)
	if err != nil {
		reply(c, bindFailure(err))
		return
	}
	if closer, ok := in.Image.File.(io.Closer); ok {
		defer closer.Close()
	}
	reply(c, h.service.Create(c.Request.Context(), in))
}

// --------------------------------------------------
// PUT /menu/:id
// --------------------------------------------------
func (h *Handler) Update(c *gin.Context) {
	if !h.available(c) {
		return
	}
	in, err := bindDishInput(c)
	if err != nil {
		reply(c, bindFailure(err))
		return
	}
	if closer, ok := in.Image.File.(io.Closer); ok {
		defer closer.Close()
	}
	reply(c, h.service.Update(c.Request.Context(), c.Param("id"), in))
}

// --------------------------------------------------
// DELETE /menu/:id
// --------------------------------------------------
func (h *Handler) Delete(c *gin.Context) {
	if !h.available(c) {
		return
	}
	reply(c, h.service.Delete(c.Request.Context(), c.Param("id")))
}

// bindDishInput reads the request body in either of its two shapes.
// Absent fields stay nil so the service can tell "missing" from
// "empty".
func bindDishInput(c *gin.Context) (DishInput, error) {
	var in DishInput

	ct := c.ContentType()
	if strings.HasPrefix(ct, gin.MIMEMultipartPOSTForm) || ct == gin.MIMEPOSTForm {
		if v, ok := c.GetPostForm("nombre"); ok {
			in.Nombre = v
		}
		if v, ok := c.GetPostForm("precio"); ok {
			in.Precio = v
		}
		if v, ok := c.GetPostForm("imagen_url"); ok {
			in.Image.URL = v
		}
		file, header, err := c.Request.FormFile("imagen")
		switch {
		case err == nil && header.Filename != "":
			in.Image.File = file
			in.Image.Filename = header.Filename
		case err == nil:
			// file part present but unnamed; nothing to upload
			file.Close()
		case isBodyTooLarge(err):
			return in, err
		}
		return in, nil
	}

	raw := map[string]any{}
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return in, err
	}
	in.Nombre = raw["nombre"]
	in.Precio = raw["precio"]
	if u, ok := raw["imagen_url"].(string); ok {
		in.Image.URL = u
	}
	return in, nil
}

// bindFailure distinguishes a body that blew the size cap (the
// MaxBytesReader installed by the middleware) from one that is merely
// malformed.
func bindFailure(err error) *Response {
	if isBodyTooLarge(err) {
		return fail(http.StatusRequestEntityTooLarge,
			"El archivo es demasiado grande. Tamaño máximo: 16MB")
	}
	return fail(http.StatusBadRequest, "Cuerpo de la petición inválido")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
