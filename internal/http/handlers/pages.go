package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/render"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

// PagesHandler serves passive page loads: each one resolves its data
// through the store and renders it in one go.
type PagesHandler struct {
	store    *storefront.Store
	renderer *render.Renderer
	logger   *log.Logger
}

func NewPagesHandler(store *storefront.Store, renderer *render.Renderer, logger *log.Logger) *PagesHandler {
	return &PagesHandler{store: store, renderer: renderer, logger: logger}
}

func (h *PagesHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	flag := session.FromContext(r.Context())
	view, err := h.store.LoadProducts(r.Context(), middleware.GetViewerID(r.Context()), flag.Authenticated())
	status := h.loadStatus(r, "catalog", err)

	writeHTML(w, r, status, func(out io.Writer) error {
		return h.renderer.CatalogPage(out, render.Page[storefront.CatalogView]{
			Title:   "Catalog",
			Header:  render.HeaderData{Authenticated: flag.Authenticated()},
			Content: view,
		})
	})
}

func (h *PagesHandler) Cart(w http.ResponseWriter, r *http.Request) {
	if !session.FromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	view, err := h.store.LoadCart(r.Context(), middleware.GetViewerID(r.Context()))
	status := h.loadStatus(r, "cart", err)

	writeHTML(w, r, status, func(out io.Writer) error {
		return h.renderer.CartPage(out, render.Page[storefront.CartView]{
			Title:   "Cart",
			Header:  render.HeaderData{Authenticated: true},
			Content: view,
		})
	})
}

func (h *PagesHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if !session.FromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
		return h.renderer.CheckoutPage(out, render.Page[storefront.CheckoutView]{
			Title:  "Checkout",
			Header: render.HeaderData{Authenticated: true},
		})
	})
}

func (h *PagesHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.auth(w, r, render.AuthForm{Intent: storefront.IntentLogin, Submit: "Log in"}, "Log in")
}

func (h *PagesHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.auth(w, r, render.AuthForm{Intent: storefront.IntentRegister, Submit: "Register"}, "Register")
}

func (h *PagesHandler) auth(w http.ResponseWriter, r *http.Request, form render.AuthForm, title string) {
	authenticated := session.FromContext(r.Context()).Authenticated()
	writeHTML(w, r, http.StatusOK, func(out io.Writer) error {
		return h.renderer.AuthPage(out, render.Page[render.AuthForm]{
			Title:   title,
			Header:  render.HeaderData{Authenticated: authenticated},
			Content: form,
		})
	})
}

// CatalogFragment serves the product grid alone for partial refreshes.
func (h *PagesHandler) CatalogFragment(w http.ResponseWriter, r *http.Request) {
	flag := session.FromContext(r.Context())
	view, err := h.store.LoadProducts(r.Context(), middleware.GetViewerID(r.Context()), flag.Authenticated())
	status := h.loadStatus(r, "catalog", err)

	writeHTML(w, r, status, func(out io.Writer) error {
		return h.renderer.CatalogFragment(out, view, nil)
	})
}

func (h *PagesHandler) CartFragment(w http.ResponseWriter, r *http.Request) {
	if !session.FromContext(r.Context()).Authenticated() {
		writeHTML(w, r, http.StatusUnauthorized, func(out io.Writer) error {
			return h.renderer.CartFragment(out, storefront.CartView{Failed: true}, &storefront.Notice{
				Kind: storefront.NoticeError,
				Text: storefront.NoticeAuthRequired,
			})
		})
		return
	}
	view, err := h.store.LoadCart(r.Context(), middleware.GetViewerID(r.Context()))
	status := h.loadStatus(r, "cart", err)

	writeHTML(w, r, status, func(out io.Writer) error {
		return h.renderer.CartFragment(out, view, nil)
	})
}

// loadStatus logs a failed passive load. The page still renders with its
// placeholder; the status tells the browser the data is missing.
func (h *PagesHandler) loadStatus(r *http.Request, what string, err error) int {
	if err == nil {
		return http.StatusOK
	}
	if h.logger != nil {
		h.logger.Printf("load %s page: viewer=%s cid=%s: %v",
			what, middleware.GetViewerID(r.Context()), middleware.GetCorrelationID(r.Context()), err)
	}
	return http.StatusBadGateway
}
