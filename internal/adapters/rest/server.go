package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"rentals-service/internal/core/domain"
	"rentals-service/internal/core/port"
)

const apiPrefix = "/api/v1"

// Handlers - все обработчики API.
type Handlers struct {
	Listings  *ListingsHandler
	Stream    *StreamHandler
	Favorites *FavoritesHandler
	Auth      *AuthHandler
	Users     *UsersHandler
}

// NewRouter собирает маршруты: публичные, для аутентифицированных и только для администратора.
func NewRouter(h Handlers, auth *AuthMiddleware, allowedOrigins []string, baseLogger port.LoggerPort) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware(baseLogger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", traceIDHeader},
		ExposedHeaders:   []string{traceIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route(apiPrefix, func(r chi.Router) {
		// --- Публичные маршруты ---
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			// без токена избранное просто пустое
			r.Use(auth.OptionalAuth)
			r.Get("/flats", h.Listings.BrowseListings)
			r.Get("/flats/filters/options", h.Listings.GetFilterOptions)
			r.Get("/flats/{flatID}", h.Listings.GetListing)
		})

		r.With(auth.AuthenticateStream).Get("/flats/stream", h.Stream.StreamListings)

		// --- Только с токеном ---
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/flats", h.Listings.CreateListing)
			r.Delete("/flats/{flatID}", h.Listings.DeleteListing)
			r.Get("/my-flats", h.Listings.MyListings)

			r.Get("/favorites", h.Favorites.GetFavoriteIDs)
			r.Post("/favorites", h.Favorites.AddToFavorites)
			r.Delete("/favorites/{flatID}", h.Favorites.RemoveFromFavorites)

			r.Get("/profile", h.Users.GetProfile)
			r.Put("/profile", h.Users.UpdateProfile)

			// --- Администратор ---
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleAdmin))
				r.Get("/users", h.Users.BrowseUsers)
				r.Get("/users/{userID}", h.Users.GetUser)
				r.Put("/users/{userID}", h.Users.UpdateUser)
				r.Delete("/users/{userID}", h.Users.DeleteUser)
			})
		})
	})

	return r
}

// Server - REST API сервер.
type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort
}

func NewServer(listenPort string, handler http.Handler, baseLogger port.LoggerPort) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + listenPort,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			// WriteTimeout не задан: SSE-соединения живут долго
		},
		logger: baseLogger.WithFields(port.Fields{"component": "rest_server"}),
	}
}

// OnShutdown регистрирует функцию, которая вызывается в начале остановки сервера.
func (s *Server) OnShutdown(f func()) {
	s.httpServer.RegisterOnShutdown(f)
}

// Start запускает HTTP-сервер.
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", port.Fields{"address": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
