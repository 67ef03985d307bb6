package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// precio travels as a bare JSON number, not a quoted string
	decimal.MarshalJSONWithoutQuotes = true
}

// Dish is a single menu entry. FechaCreacion is assigned by the store
// and only surfaced on reads.
type Dish struct {
	ID            int             `json:"id"`
	Nombre        string          `json:"nombre"`
	Precio        decimal.Decimal `json:"precio"`
	ImagenURL     string          `json:"imagen_url"`
	FechaCreacion *time.Time      `json:"fecha_creacion,omitempty"`
}

// Response is the uniform envelope every service operation returns.
// Code mirrors the HTTP status the boundary answers with.
type Response struct {
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func fail(code int, message string) *Response {
	return &Response{Code: code, Message: message}
}
