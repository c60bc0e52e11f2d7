package routes

import (
	"net/http"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/types"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(ctrl *controllers.UserController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	r.Get("/profile", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		user, err := ctrl.GetProfile(r.Context(), id)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"user": user}, http.StatusOK, nil
	}))

	r.Put("/profile", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.UpdateProfileRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		user, err := ctrl.UpdateProfile(r.Context(), id, req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"message": "Profil berhasil diperbarui!", "user": user}, http.StatusOK, nil
	}))

	r.Put("/change-password", handleJSON(func(r *http.Request) (any, int, error) {
		id, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.ChangePasswordRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		if err := ctrl.ChangePassword(r.Context(), id, req); err != nil {
			return nil, 0, err
		}
		return map[string]string{"message": "Password berhasil diubah"}, http.StatusOK, nil
	}))
	return r
}
