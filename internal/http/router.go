package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/http/handlers"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/render"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

type Deps struct {
	Logger *log.Logger
	Cfg    config.Config

	Store    *storefront.Store
	Renderer *render.Renderer
	Registry *storefront.Registry
	Session  session.Probe

	HealthProbes []clients.HealthProbe
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.Logging(d.Logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))
	r.Use(middleware.Recover(d.Logger))

	// Health
	health := &handlers.HealthHandler{Probes: d.HealthProbes}
	r.Get("/health", health.Service)
	r.Get("/health/upstreams", health.Upstreams)

	pages := handlers.NewPagesHandler(d.Store, d.Renderer, d.Logger)
	actions := handlers.NewActionsHandler(d.Registry, d.Renderer)

	// Storefront: everything below sees the viewer's cookies and the session
	// flag resolved for this page load.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Viewer(d.Cfg.ViewerCookie))
		r.Use(middleware.ForwardCredentials(d.Cfg.ViewerCookie))
		r.Use(session.Middleware(d.Session, d.Logger))

		r.Get("/", pages.Catalog)
		r.Get("/cart", pages.Cart)
		r.Get("/checkout", pages.Checkout)
		r.Get("/login", pages.Login)
		r.Get("/register", pages.Register)

		r.Route("/fragments", func(r chi.Router) {
			r.Get("/catalog", pages.CatalogFragment)
			r.Get("/cart", pages.CartFragment)
		})

		r.With(middleware.SameOrigin(d.Cfg.CORSAllowOrigins)).Post("/actions/{intent}", actions.Dispatch)
	})

	return r
}
