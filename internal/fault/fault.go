// Package fault defines the error taxonomy shared by the SkyMessage
// pipelines and the HTTP boundary.
//
// Pipelines wrap failures with these sentinels using fmt.Errorf and %w;
// the API layer maps them to status codes with errors.Is. Pipelines do
// not swallow upstream errors except where an explicit fallback is
// defined (catalog fetch → seed data, AI match → heuristic match).
package fault

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidArgument indicates malformed or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate create (catalog CRUD only).
	ErrConflict = errors.New("conflict")

	// ErrUpstream indicates an embedding, vector store, or generation
	// service failure. The upstream message is preserved for diagnostics.
	ErrUpstream = errors.New("upstream failure")

	// ErrParse indicates generation output that is not valid structured
	// data. The matcher treats this as a signal to fall back to the
	// heuristic scorer; elsewhere it surfaces as an upstream failure.
	ErrParse = errors.New("unparseable model output")
)

// HTTPStatus maps an error to the HTTP status code reported at the API
// boundary. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
