package api

import (
	"errors"
	"net/http"

	"github.com/rotisk95/Thalionyx/internal/api/respond"
	"github.com/rotisk95/Thalionyx/internal/model"
)

// writeServiceError maps core error taxonomy to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrNotInitialized):
		respond.WriteServiceUnavailable(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
