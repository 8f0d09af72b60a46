package routes

import (
	"net/http"

	"github.com/AnshRaj112/serenify-journal/internal/handlers"
	"github.com/AnshRaj112/serenify-journal/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Deps are the handlers and policies the route table is built from.
// SentimentWS and Metrics may be nil.
type Deps struct {
	Journal     *handlers.JournalHandler
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Admin       *handlers.AdminHandler
	SentimentWS http.Handler
	Metrics     http.Handler

	Sessions       middleware.SessionValidator
	IsAdmin        func(username string) bool
	AllowedOrigins []string
	// Security runs after CORS on every route except /health and /metrics.
	Security []func(http.Handler) http.Handler
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health and metrics (no rate limit)
	r.Get("/health", handlers.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range d.Security {
			r.Use(mw)
		}
		SetupRoutes(r, d)
	})
	return r
}

func SetupRoutes(r chi.Router, d Deps) {
	r.Route("/public", func(r chi.Router) {
		r.Get("/health-check", handlers.Health)
		r.Post("/signup", d.Auth.Signup)
		r.Post("/login", d.Auth.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(d.Sessions))

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", d.Journal.List)
			r.Post("/", d.Journal.Create)
			r.Get("/id/{id}", d.Journal.Get)
			r.Put("/id/{id}", d.Journal.Update)
			r.Delete("/id/{id}", d.Journal.Delete)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/", d.User.Greeting)
			r.Put("/", d.User.Update)
			r.Delete("/", d.User.Delete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.IsAdmin))
			r.Get("/all-users", d.Admin.AllUsers)
			r.Get("/clear-app-cache", d.Admin.ClearAppCache)
			r.Post("/clear-app-cache", d.Admin.ClearAppCache)
		})

		if d.SentimentWS != nil {
			r.Method(http.MethodGet, "/ws/sentiments", d.SentimentWS)
		}
	})
}
