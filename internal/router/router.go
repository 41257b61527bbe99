package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/ca-portal/internal/handlers"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
)

// Middlewares is the request pipeline shared by every route.
type Middlewares struct {
	Auth      *middleware.Middleware
	Logger    func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

func NewRouter(deps *handlers.Deps, mw Middlewares) chi.Router {
	r := chi.NewRouter()
	// no RealIP: the rate limiter resolves the client from trusted hops only
	r.Use(chimiddleware.RequestID)
	r.Use(mw.Logger)
	r.Use(chimiddleware.Recoverer)

	sysh := handlers.NewSystemHandlers(deps)
	ah := handlers.NewAuthHandlers(deps)
	ph := handlers.NewProfileHandlers(deps)
	txh := handlers.NewTaxonomyHandlers(deps)
	dh := handlers.NewDocumentHandlers(deps)
	aph := handlers.NewApplicationHandlers(deps)
	nh := handlers.NewNotificationHandlers(deps)
	adh := handlers.NewAdminHandlers(deps)

	r.Get("/healthz", sysh.Healthz)
	r.Get("/financial-years", sysh.FinancialYears)
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimit)
			r.Post("/signup", ah.Signup)
			r.Post("/login", ah.Login)
			r.Post("/refresh", ah.Refresh)
			r.Post("/password/forgot", ah.ForgotPassword)
			r.Post("/password/reset", ah.ResetPassword)
		})
		r.With(mw.Auth.FirebaseAuth, mw.Auth.LoadRole).Post("/logout", ah.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Auth.FirebaseAuth, mw.Auth.LoadRole)

		r.Get("/me", ah.Me)
		r.Put("/me/password", ah.ChangePassword)

		r.Mount("/profile", ph.ProfileRoutes())
		r.Mount("/taxonomy", txh.TaxonomyRoutes())
		r.Mount("/documents", dh.DocumentRoutes())
		r.Mount("/applications", aph.ApplicationRoutes())
		r.Mount("/notifications", nh.NotificationRoutes())

		r.With(mw.Auth.RequireStaff).Mount("/admin", adh.AdminRoutes(mw.Auth.RequireAdmin))
	})
	return r
}
