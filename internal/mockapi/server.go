package mockapi

import (
	"log/slog"

	"github.com/frahmantamala/expense-client/api"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/transport/middleware"
	"github.com/frahmantamala/expense-client/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// NewRouter mounts the remote API surface the client talks to.
func NewRouter(h *Handler, auth *Auth, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get(swagger.SpecPath, swagger.SpecHandler(api.OpenAPI))
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", h.Login)
		ar.Post("/register", h.Register)
	})

	router.Group(func(pr chi.Router) {
		pr.Use(middleware.Bearer(auth.Verify, h.BaseHandler))

		pr.Route("/expenses", func(er chi.Router) {
			er.Get("/", h.ListExpenses)
			er.Post("/", h.CreateExpense)
			er.Get("/{id}", h.GetExpense)
		})

		pr.Route("/admin", func(adm chi.Router) {
			adm.Use(middleware.RequireRole(h.BaseHandler, user.RoleAdmin))
			adm.Get("/analytics", h.Analytics)
			adm.Patch("/expenses/{id}", h.UpdateStatus)
		})
	})

	return router
}
