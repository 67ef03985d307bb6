package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxNameLength = 100

var maxPrice = decimal.RequireFromString("999999.99")

var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Accepts http/https followed by a domain name, localhost or a
// dotted-quad IP, then an optional port and path/query.
var urlPattern = regexp.MustCompile(
	`(?i)^https?://` +
		`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`,
)

// Single pass, so an already escaped "&amp;" is not escaped again.
var nameEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// SanitizeName normalizes a dish name before it reaches the store:
// stringified, trimmed, truncated to 100 characters and HTML-escaped.
// Never fails.
func SanitizeName(value any) string {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprint(value)
	}
	s = strings.TrimSpace(s)
	// Truncation counts characters, not bytes, so a multi-byte name is
	// never cut mid-rune.
	if utf8.RuneCountInString(s) > maxNameLength {
		s = string([]rune(s)[:maxNameLength])
	}
	return nameEscaper.Replace(s)
}

// ValidatePrice parses a price coming from JSON or a form field and
// checks it against the [0, 999999.99] bound.
func ValidatePrice(value any) (decimal.Decimal, error) {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := value.(type) {
	case nil:
		return decimal.Decimal{}, errors.New("el precio debe ser un número válido")
	case decimal.Decimal:
		d = v
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case float64:
		d = decimal.NewFromFloat(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	default:
		d, err = decimal.NewFromString(fmt.Sprint(v))
	}
	if err != nil {
		return decimal.Decimal{}, errors.New("el precio debe ser un número válido")
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errors.New("el precio no puede ser negativo")
	}
	if d.GreaterThan(maxPrice) {
		return decimal.Decimal{}, errors.New("el precio excede el límite máximo")
	}
	return d, nil
}

// ValidateURL checks that s looks like an absolute HTTP/HTTPS URL and
// returns it unchanged. No normalization happens here.
func ValidateURL(s string) (string, error) {
	if s == "" {
		return "", errors.New("la URL de la imagen es requerida")
	}
	if !urlPattern.MatchString(s) {
		return "", errors.New("URL inválida. Debe ser una URL HTTP/HTTPS válida")
	}
	return s, nil
}

// ValidateID parses a positive integer identifier.
func ValidateID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("el ID debe ser un número entero válido")
	}
	if id <= 0 {
		return 0, errors.New("el ID debe ser un número positivo")
	}
	return id, nil
}

// ValidateImageExtension rejects filenames whose final extension is not
// a recognized image format. Runs before any upload attempt.
func ValidateImageExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExt[ext] {
		return errors.New("formato de imagen no permitido. Use: png, jpg, jpeg, gif, webp")
	}
	return nil
}
