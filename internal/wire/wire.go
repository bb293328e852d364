// internal/wire/wire.go
package wire

import (
	"net/http"

	"fitness-booking/internal/adaptor"
	"fitness-booking/internal/data/repository"
	"fitness-booking/internal/usecase"
	"fitness-booking/pkg/middleware"
	"fitness-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the core services behind it
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers and mounts every route
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger, opts ...usecase.Option) *App {
	service := usecase.NewService(repo, config, logger, opts...)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	// Everything under /api needs a caller identity from the upstream auth layer
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Identity(logger))

		wireAvailability(r, handler.Availability)
		wireBooking(r, handler.Booking, handler.Chat)
		wireNotification(r, handler.Notification)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
