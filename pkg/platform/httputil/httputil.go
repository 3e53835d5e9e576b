// Package httputil centralizes JSON response writing so every handler renders
// the same envelopes. Error bodies always carry a "message" field; the status
// comes from the error's kind.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "publizon-adapter/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into its mapped status and a JSON body
// with a "message" field. Untagged errors render as a generic 500 so internal
// detail never reaches the caller.
func WriteError(w http.ResponseWriter, err error) {
	kind := dErrors.KindOf(err)
	WriteJSON(w, dErrors.HTTPStatus(kind), map[string]string{
		"message": dErrors.MessageOf(err),
	})
}
