package routes

import (
	"context"
	"errors"
	"net/http"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"
	httputils "mindtrack/mindtrack/utils/http"
	"mindtrack/mindtrack/utils/logging"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(requestTimeout))
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.CreateSessionRequest
			if r.ContentLength != 0 {
				if err := decode(r, &req); err != nil {
					return nil, 0, err
				}
			}
			session, err := ctrl.CreateSession(r.Context(), userID, req.Title)
			if err != nil {
				return nil, 0, err
			}
			return map[string]any{"session": session}, http.StatusCreated, nil
		}))

		gr.Get("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			sessions, page, err := ctrl.ListSessions(r.Context(), userID, queryInt(r, "page", 1), queryInt(r, "pageSize", 0))
			if err != nil {
				return nil, 0, err
			}
			return map[string]any{"sessions": sessions, "pagination": page}, http.StatusOK, nil
		}))

		gr.Put("/sessions/{id}/activate", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := pathID(r, "id")
			if err != nil {
				return nil, 0, err
			}
			req := types.ActivateSessionRequest{}
			if r.ContentLength != 0 {
				if err := decode(r, &req); err != nil {
					return nil, 0, err
				}
			}
			active := req.Active == nil || *req.Active
			updated, err := ctrl.ActivateSession(r.Context(), userID, id, active)
			if err != nil {
				return nil, 0, err
			}
			if !updated {
				return nil, 0, errs.NotFound()
			}
			return map[string]bool{"updated": true}, http.StatusOK, nil
		}))

		gr.Delete("/sessions/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := pathID(r, "id")
			if err != nil {
				return nil, 0, err
			}
			deleted, err := ctrl.DeleteSession(r.Context(), userID, id)
			if err != nil {
				return nil, 0, err
			}
			if !deleted {
				return nil, 0, errs.NotFound()
			}
			return map[string]bool{"deleted": true}, http.StatusOK, nil
		}))

		gr.Get("/sessions/{id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := pathID(r, "id")
			if err != nil {
				return nil, 0, err
			}
			msgs, err := ctrl.ListMessages(r.Context(), userID, id, queryInt(r, "page", 1), queryInt(r, "pageSize", 0))
			if err != nil {
				return nil, 0, err
			}
			return map[string]any{"messages": msgs}, http.StatusOK, nil
		}))

		gr.Post("/sessions/{id}/export", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			id, err := pathID(r, "id")
			if err != nil {
				return nil, 0, err
			}
			key, err := ctrl.ExportSession(r.Context(), userID, id)
			if errors.Is(err, controllers.ErrExportDisabled) {
				msg := "Ekspor transkrip tidak tersedia."
				if httputils.Lang(r) == "en" {
					msg = "Transcript export is not available."
				}
				return map[string]string{"message": msg}, http.StatusServiceUnavailable, nil
			}
			if err != nil {
				return nil, 0, err
			}
			return map[string]string{"key": key}, http.StatusCreated, nil
		}))

		gr.Get("/messages/recent", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			msgs, err := ctrl.ListRecentMessages(r.Context(), userID, queryInt(r, "limit", 0))
			if err != nil {
				return nil, 0, err
			}
			return map[string]any{"messages": msgs}, http.StatusOK, nil
		}))

		gr.Post("/message", handleJSON(func(r *http.Request) (any, int, error) {
			userID, err := currentUser(r)
			if err != nil {
				return nil, 0, err
			}
			var req types.SendMessageRequest
			if err := decode(r, &req); err != nil {
				return nil, 0, err
			}
			res, err := ctrl.SendMessage(r.Context(), userID, req)
			if err != nil {
				return nil, 0, err
			}
			return res, http.StatusOK, nil
		}))
	})

	r.Get("/ws", chatSocket(ctrl, cfg))
	return r
}

type wsError struct {
	Error string `json:"error"`
}

// chatSocket authenticates with the first frame ({"token": ...}) and then
// answers every message frame with a send result or {"error": ...}.
func chatSocket(ctrl *controllers.ChatController, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		lang := httputils.Lang(r)

		var hello types.WSChatFrame
		helloCtx, cancel := context.WithTimeout(ctx, authFrameTimeout)
		err = wsjson.Read(helloCtx, conn, &hello)
		cancel()
		if err != nil {
			if helloCtx.Err() != nil {
				conn.Close(websocket.StatusPolicyViolation, "authentication timeout")
				return
			}
			conn.Close(websocket.StatusUnsupportedData, "invalid json")
			return
		}
		userID, err := middlewares.ParseToken(cfg.JWTSecret, hello.Token)
		if err != nil {
			_ = wsjson.Write(ctx, conn, wsError{Error: httputils.MessageFor(err, lang)})
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		for {
			var frame types.WSChatFrame
			if err := wsjson.Read(ctx, conn, &frame); err != nil {
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
					conn.Close(websocket.StatusNormalClosure, "")
					return
				}
				logging.AppLogger.Info("chat socket closed", zap.Int("user_id", userID), zap.Error(err))
				return
			}
			res, err := ctrl.SendMessage(ctx, userID, frame.SendMessageRequest)
			var out any = res
			if err != nil {
				if httputils.StatusFor(err) >= http.StatusInternalServerError {
					logging.ErrorLogger.Error("chat socket send failed", zap.Int("user_id", userID), zap.Error(err))
				}
				out = wsError{Error: httputils.MessageFor(err, lang)}
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return
			}
		}
	}
}
