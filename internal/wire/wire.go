package wire

import (
	"net/http"

	"medhistory/internal/adaptor"
	"medhistory/internal/data/repository"
	"medhistory/internal/token"
	"medhistory/internal/usecase"
	"medhistory/pkg/middleware"
	"medhistory/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled HTTP surface.
type App struct {
	Router *chi.Mux
}

// guards are the per-route auth middlewares.
type guards struct {
	jwt   func(http.Handler) http.Handler
	staff func(http.Handler) http.Handler
}

// Wiring builds services, handlers and the router.
func Wiring(repo *repository.Repository, tokens *token.Manager, notifier usecase.Notifier, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, tokens, notifier, config, logger)
	handler := adaptor.NewHandler(service, logger)

	g := guards{
		jwt:   middleware.AuthJWT(tokens, logger),
		staff: middleware.Staff(service.User, logger),
	}

	return &App{
		Router: setupRouter(handler, g, config, logger),
	}
}

func setupRouter(handler *adaptor.Handler, g guards, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.ClientInfo)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	wireSignup(r, handler.Signup, handler.Password)
	wireLogin(r, handler.Login, g)
	wireUser(r, handler.User, g)
	wireCatalog(r, handler.Catalog, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
