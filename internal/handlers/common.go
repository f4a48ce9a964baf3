package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/laneboard/laneboard/internal/auth"
	"github.com/laneboard/laneboard/internal/httpx"
)

// identity returns the verified external identity. Protected routes
// sit behind auth.RequireAuth, so absence here means a wiring bug and
// is treated as unauthorized rather than a panic.
func identity(r *http.Request) (string, bool) {
	return auth.IdentityFromContext(r.Context())
}

// pathID parses a UUID path variable, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}
