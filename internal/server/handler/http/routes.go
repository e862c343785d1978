package http

import (
	"net/http"
	"path"

	"github.com/atinyakov/zkauth/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Deps are the collaborators of the router.
type Deps struct {
	Clients  middleware.ClientDirectory
	Sessions middleware.SessionVerifier
	Auth     *AuthHandler
	Users    *UserHandler
	// WWWDir, when set, is served for every path outside the API.
	WWWDir string
	// CORSOrigins lists browser origins allowed to call the API. Empty
	// disables CORS handling.
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter constructs the HTTP handler of the service.
//
// Routes:
//
//	POST /api/v1/users   → Users.Register  (client auth)
//	POST /api/v1/login   → Auth.Login      (client auth)
//	GET  /api/v1/session → Session         (client auth + session token)
//	GET  /*              → static files from WWWDir, if configured
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(d.Logger))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.SessionHeader},
		}).Handler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ClientAuth(d.Clients, d.Logger))
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/users", d.Users.Register)
		r.Post("/login", d.Auth.Login)
		r.With(middleware.SessionAuth(d.Sessions, d.Logger)).Get("/session", Session)
	})

	if d.WWWDir != "" {
		r.Handle("/*", staticFiles(http.Dir(d.WWWDir)))
	}

	return r
}

// staticFiles serves root like http.FileServer but answers 404 for
// directories without an index.html instead of listing them.
func staticFiles(root http.Dir) http.Handler {
	fs := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if f, err := root.Open(name); err == nil {
			info, statErr := f.Stat()
			_ = f.Close()
			if statErr == nil && info.IsDir() {
				index, err := root.Open(path.Join(name, "index.html"))
				if err != nil {
					http.NotFound(w, r)
					return
				}
				_ = index.Close()
			}
		}
		fs.ServeHTTP(w, r)
	})
}
