package routes

import (
	"net/http"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/controllers"
	"mindtrack/mindtrack/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestTimeout bounds plain HTTP requests. The chat socket is exempt.
const requestTimeout = 60 * time.Second

// authFrameTimeout bounds the wait for a chat socket's first {token} frame.
var authFrameTimeout = 10 * time.Second

type Controllers struct {
	Auth    *controllers.AuthController
	User    *controllers.UserController
	Journal *controllers.JournalController
	Chat    *controllers.ChatController
	Health  *controllers.HealthController
}

// NewRouter mounts every route group behind the shared middleware stack.
func NewRouter(ctrls Controllers, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", HealthRoutes(ctrls.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Mount("/chat", ChatRoutes(ctrls.Chat, cfg))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(requestTimeout))
		gr.Mount("/auth", AuthRoutes(ctrls.Auth))
		gr.Mount("/users", UserRoutes(ctrls.User, cfg))
		gr.Mount("/journals", JournalRoutes(ctrls.Journal, cfg))
	})
	return r
}
