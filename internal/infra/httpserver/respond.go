package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type envelope map[string]any

// httpError is returned by handlers for answers other than 500. Err, if set,
// is logged but never shown to the client.
type httpError struct {
	Status  int
	Message string
	Err     error
}

func (e *httpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *httpError) Unwrap() error { return e.Err }

func badRequest(message string, err error) error {
	return &httpError{Status: http.StatusBadRequest, Message: message, Err: err}
}

func tooLarge(message string, err error) error {
	return &httpError{Status: http.StatusRequestEntityTooLarge, Message: message, Err: err}
}

// internal hides err behind a fixed message.
func internal(message string, err error) error {
	return &httpError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readJSON decodes exactly one JSON value of at most maxBytes into dst.
func readJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return badRequest(fmt.Sprintf("body contains badly-formed JSON (at character %d)", syntaxError.Offset), err)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("body contains badly-formed JSON", err)
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return badRequest(fmt.Sprintf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field), err)
			}
			return badRequest(fmt.Sprintf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset), err)
		case errors.Is(err, io.EOF):
			return badRequest("body must not be empty", err)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return badRequest(fmt.Sprintf("body contains unknown key %s", fieldName), err)
		case errors.As(err, &maxBytesError):
			return tooLarge(fmt.Sprintf("body must not be larger than %d bytes", maxBytesError.Limit), err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("body must only contain a single JSON value", err)
	}
	return nil
}
