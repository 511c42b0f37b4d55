package wire

import (
	"travel-booking/internal/adaptor"
	"travel-booking/internal/data/repository"
	"travel-booking/internal/usecase"
	"travel-booking/pkg/middleware"
	"travel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services and handlers on top of the repositories and the
// optional infrastructure, then mounts every route.
func Wiring(
	repo *repository.Repository,
	infra usecase.Infra,
	checks map[string]adaptor.HealthCheck,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, infra, logger)
	handler := adaptor.NewHandler(service, logger)
	health := adaptor.NewHealthHandler(checks, logger)

	return &App{
		Router:  setupRouter(handler, health, repo, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	health *adaptor.HealthHandler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	auth := middleware.AuthSession(repo.Session, repo.User, logger)
	admin := middleware.Admin(logger)

	wireBooking(r, handler.Booking, auth, admin)
	wirePayment(r, handler.Payment, auth, admin)
	wireFlight(r, handler.Flight, auth, admin)
	wireHotel(r, handler.Hotel, auth, admin)

	r.Get("/health", health.Health)

	return r
}
