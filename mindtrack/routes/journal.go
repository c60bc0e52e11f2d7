package routes

import (
	"net/http"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/types"

	"github.com/go-chi/chi/v5"
)

func JournalRoutes(ctrl *controllers.JournalController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))

	r.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		var req types.JournalRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		journal, err := ctrl.CreateJournal(r.Context(), userID, req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"message": "Jurnal berhasil disimpan!", "journal": journal}, http.StatusCreated, nil
	}))

	r.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		journals, page, err := ctrl.ListJournals(r.Context(), userID, queryInt(r, "page", 1), queryInt(r, "limit", 0))
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"journals": journals, "pagination": page}, http.StatusOK, nil
	}))

	r.Get("/stats", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		stats, err := ctrl.MoodStats(r.Context(), userID, r.URL.Query().Get("period"))
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"stats": stats}, http.StatusOK, nil
	}))

	r.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := pathID(r, "id")
		if err != nil {
			return nil, 0, err
		}
		journal, err := ctrl.GetJournal(r.Context(), userID, id)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"journal": journal}, http.StatusOK, nil
	}))

	r.Put("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := pathID(r, "id")
		if err != nil {
			return nil, 0, err
		}
		var req types.JournalRequest
		if err := decode(r, &req); err != nil {
			return nil, 0, err
		}
		journal, err := ctrl.UpdateJournal(r.Context(), userID, id, req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"message": "Jurnal berhasil diperbarui!", "journal": journal}, http.StatusOK, nil
	}))

	r.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
		userID, err := currentUser(r)
		if err != nil {
			return nil, 0, err
		}
		id, err := pathID(r, "id")
		if err != nil {
			return nil, 0, err
		}
		if err := ctrl.DeleteJournal(r.Context(), userID, id); err != nil {
			return nil, 0, err
		}
		return map[string]string{"message": "Jurnal berhasil dihapus!"}, http.StatusOK, nil
	}))
	return r
}
