package request

import (
	"encoding/json"
	"errors"
	"net/http"
)

// MaxBodyBytes bounds an admin request body
const MaxBodyBytes = 1 << 20

// ErrTrailingData is returned when a body holds more than one JSON value
var ErrTrailingData = errors.New("unexpected data after request body")

// Decode reads exactly one JSON value from the request body into v.
// Unknown fields are rejected.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return ErrTrailingData
	}
	return nil
}
