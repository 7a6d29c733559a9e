package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ingestion-api/internal/product"
	"ingestion-api/internal/user"
)

// Backend bundles the services for one store. The primary and secondary
// stores expose identical surfaces; only the mount point differs.
type Backend struct {
	Users    user.Service
	Products product.Service
}

// NewRouter mounts the full HTTP surface: the primary store at the root and
// the secondary store under the /sqlserver prefix.
func NewRouter(primary, secondary Backend) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/", handleRoot)
	router.Get("/health", handleHealth)

	mountBackend(router, primary)
	router.Route("/sqlserver", func(r chi.Router) {
		mountBackend(r, secondary)
	})

	return router
}

func mountBackend(router chi.Router, backend Backend) {
	router.Route("/users", NewUserHandler(backend.Users).RegisterRoutes)
	router.Route("/products", NewProductHandler(backend.Products).RegisterRoutes)
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, messageResponse{Message: "Real-Time Data Ingestion API"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
