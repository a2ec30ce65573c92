package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/romanconv/romanconv/pkg/roman"
)

const (
	MissingQueryParameter = "Missing query parameter"
	InvalidNumberFormat   = "Invalid number format"
	NumberOutOfRange      = "Number must be between 1 and 3999"
	InternalServerError   = "Internal server error"
	NotFound              = "Not found"
)

// WriteJSONResponse encodes body with the given status code. Encoding happens
// before any header is written so a failure can still become a 500.
func WriteJSONResponse(w http.ResponseWriter, body any, code int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		WriteTextResponse(w, InternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// WriteTextResponse writes message as a plain text body.
func WriteTextResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(message))
}

// StatusFromError maps a conversion error to its HTTP status and client message.
func StatusFromError(err error) (int, string) {
	var invalid *roman.InvalidRomanNumeralError
	switch {
	case errors.Is(err, roman.ErrMissingInput):
		return http.StatusBadRequest, MissingQueryParameter
	case errors.Is(err, roman.ErrOutOfRange):
		return http.StatusBadRequest, NumberOutOfRange
	case errors.Is(err, roman.ErrNotInteger), errors.Is(err, roman.ErrInvalidFormat):
		return http.StatusBadRequest, InvalidNumberFormat
	case errors.As(err, &invalid):
		return http.StatusBadRequest, fmt.Sprintf("Invalid Roman numeral: %s", invalid.Numeral)
	default:
		return http.StatusInternalServerError, InternalServerError
	}
}
