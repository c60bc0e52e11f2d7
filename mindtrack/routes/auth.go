package routes

import (
	"net/http"

	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/types"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.RegisterRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		user, token, err := ctrl.Register(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"message": "User berhasil terdaftar!", "user": user, "token": token}, http.StatusCreated, nil
	}))
	r.Post("/login", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.LoginRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		user, token, err := ctrl.Login(r.Context(), req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"message": "Login berhasil!", "user": user, "token": token}, http.StatusOK, nil
	}))
	return r
}
