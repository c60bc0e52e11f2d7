package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/utils/errs"
	httputils "mindtrack/mindtrack/utils/http"

	"github.com/go-chi/chi/v5"
)

// handleJSON writes the handler's result with its status, or the localized
// error body when it fails.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			httputils.WriteError(w, r, err)
			return
		}
		httputils.WriteJSON(w, status, res)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Validation("Format JSON tidak valid!")
	}
	return nil
}

func currentUser(r *http.Request) (int, error) {
	id, ok := middlewares.UserIDFromContext(r.Context())
	if !ok {
		return 0, errs.Unauthenticated("missing user")
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		return 0, errs.NotFound()
	}
	return id, nil
}

// queryInt returns def when the parameter is absent or not a number.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}
