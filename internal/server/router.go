package server

import (
	"net/http"
	"time"

	"github.com/authgate/apiserver/internal/handlers"
	"github.com/authgate/apiserver/internal/logging"
	"github.com/authgate/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterDeps are the collaborators the HTTP routes are built from.
type RouterDeps struct {
	Auth           *services.AuthService
	Secrets        *services.SecretService
	Readiness      handlers.ReadinessChecker
	Log            logrus.FieldLogger
	AllowedOrigins []string
}

// NewRouter builds the chi router. Everything except /healthz sits behind
// the store availability gate.
func NewRouter(deps RouterDeps) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		logging.RequestLogger(deps.Log),
		cors.Handler(cors.Options{
			AllowedOrigins: deps.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
		middleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz(deps.Readiness))
	router.Group(func(r chi.Router) {
		r.Use(handlers.RequireStore(deps.Readiness, deps.Log))

		r.Get("/", handlers.Welcome)
		r.Get("/endpoints", handlers.Endpoints(router))
		handlers.AuthRouter(r, deps.Auth, deps.Log)
		r.Route("/secrets", func(r chi.Router) {
			handlers.SecretRouter(r, deps.Secrets, handlers.RequireToken(deps.Auth))
		})
	})

	return router
}
