package devserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/examwatch/internal/auth"
	"github.com/heartmarshall/examwatch/internal/config"
	"github.com/heartmarshall/examwatch/internal/transport/middleware"
	"github.com/heartmarshall/examwatch/internal/transport/rest"
)

// APIPrefix is the path under which the API is mounted.
const APIPrefix = "/api/"

// Server is the HTTP face of a Service. It embeds the Service so tests can
// seed and inspect state directly.
type Server struct {
	*Service

	handler http.Handler

	mu     sync.Mutex
	faults map[string][]int
	hits   map[string]int
}

// New builds a Server from cfg. Seed data is not loaded; call SeedDemo.
func New(logger *slog.Logger, cfg config.DevServerConfig, version string) *Server {
	jwt := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	svc := NewService(logger, jwt, cfg.RotateRefresh)

	s := &Server{
		Service: svc,
		faults:  make(map[string][]int),
		hits:    make(map[string]int),
	}
	s.handler = s.routes(logger, version)
	return s
}

func (s *Server) routes(logger *slog.Logger, version string) http.Handler {
	authH := rest.NewAuthHandler(s.Service, logger)
	incH := rest.NewIncidentHandler(s.Service, logger)
	health := rest.NewHealthHandler(version, map[string]rest.Pinger{"store": s.Service})

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(s.record)
	r.Use(middleware.Auth(s.Service))

	r.Get("/live", health.Live)
	r.Get("/ready", health.Ready)
	r.Get("/health", health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", authH.Login)
		r.Post("/auth/register/", authH.Register)
		r.Post("/auth/refresh/", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)

			r.Post("/auth/logout/", authH.Logout)
			r.Get("/auth/profile/", authH.Profile)
			r.Put("/auth/profile/update/", authH.UpdateProfile)
			r.Patch("/auth/profile/update/", authH.UpdateProfile)

			r.Get("/dashboard/stats/", incH.Dashboard)
			r.Get("/lecture-halls/buildings/", incH.Buildings)

			r.Get("/malpractices/", incH.List)
			r.Get("/malpractices/stats/", incH.Stats)
			r.Get("/malpractices/{id}/", incH.Get)
			r.Delete("/malpractices/{id}/", incH.Delete)
			r.Post("/malpractices/{id}/verify/", incH.Verify)
			r.Post("/malpractices/{id}/unverify/", incH.Unverify)
		})
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// FailNext makes the next requests to method and path (relative to the API
// prefix, e.g. "malpractices/") answer with the given statuses, one per request.
func (s *Server) FailNext(method, path string, statuses ...int) {
	key := routeKey(method, APIPrefix+path)
	s.mu.Lock()
	s.faults[key] = append(s.faults[key], statuses...)
	s.mu.Unlock()
}

// Hits returns how many requests reached method and path (relative to the
// API prefix), injected failures included.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[routeKey(method, APIPrefix+path)]
}

// record counts requests and serves injected failures before authentication
// runs, so a fault is returned regardless of the presented token.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r.Method, r.URL.Path)

		s.mu.Lock()
		s.hits[key]++
		status := 0
		if q := s.faults[key]; len(q) > 0 {
			status, s.faults[key] = q[0], q[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			middleware.WriteJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func routeKey(method, path string) string {
	return method + " " + path
}
