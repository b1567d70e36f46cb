package httpx

import (
	"errors"
	"net/http"

	"github.com/crewdeck/crewdeck/internal/shared"
)

// RespondError maps domain errors to HTTP status codes and writes the error
// envelope. Unknown errors become an opaque 500 so storage failures never
// leak details to the client.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	lang := acceptLanguage(r)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Error(w, r, http.StatusNotFound, shared.ErrorTitle(lang, "not_found"), err.Error())
	case errors.Is(err, shared.ErrConflict):
		Error(w, r, http.StatusConflict, shared.ErrorTitle(lang, "conflict"), err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Error(w, r, http.StatusForbidden, shared.ErrorTitle(lang, "forbidden"), err.Error())
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, r, http.StatusUnauthorized, shared.ErrorTitle(lang, "unauthorized"), err.Error())
	case errors.Is(err, shared.ErrValidation):
		Error(w, r, http.StatusBadRequest, shared.ErrorTitle(lang, "bad_request"), err.Error())
	default:
		Error(w, r, http.StatusInternalServerError, shared.ErrorTitle(lang, "internal"), "")
	}
}

func acceptLanguage(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Accept-Language")
}
