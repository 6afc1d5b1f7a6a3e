package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/render"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

const maxFormBytes = 64 << 10

type ActionsHandler struct {
	registry *storefront.Registry
	renderer *render.Renderer
}

func NewActionsHandler(registry *storefront.Registry, renderer *render.Renderer) *ActionsHandler {
	return &ActionsHandler{registry: registry, renderer: renderer}
}

// Dispatch handles POST /actions/{intent}.
func (h *ActionsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	intent := storefront.Intent(chi.URLParam(r, "intent"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	out, ok := h.registry.Dispatch(r.Context(), intent, inputFromForm(r))
	if !ok {
		WriteError(w, r, http.StatusNotFound, "unknown action: "+string(intent))
		return
	}

	if out.RedirectTo != "" && out.RedirectAfter <= 0 {
		http.Redirect(w, r, out.RedirectTo, http.StatusSeeOther)
		return
	}

	status := statusOf(out.Result)
	if wantsFragment(r) {
		switch {
		case out.Catalog != nil:
			writeHTML(w, r, status, func(buf io.Writer) error {
				return h.renderer.CatalogFragment(buf, *out.Catalog, out.Notice)
			})
			return
		case out.Cart != nil:
			writeHTML(w, r, status, func(buf io.Writer) error {
				return h.renderer.CartFragment(buf, *out.Cart, out.Notice)
			})
			return
		}
	}
	writeHTML(w, r, status, func(buf io.Writer) error {
		return h.page(buf, r, out)
	})
}

func (h *ActionsHandler) page(w io.Writer, r *http.Request, out storefront.Outcome) error {
	header := render.HeaderData{Authenticated: session.FromContext(r.Context()).Authenticated()}

	switch {
	case out.Cart != nil:
		return h.renderer.CartPage(w, render.Page[storefront.CartView]{
			Title: "Cart", Header: header, Notice: out.Notice, Content: *out.Cart,
		})
	case out.Checkout != nil:
		return h.renderer.CheckoutPage(w, render.Page[storefront.CheckoutView]{
			Title:        "Checkout",
			Header:       header,
			Notice:       out.Notice,
			Content:      *out.Checkout,
			RefreshAfter: out.RedirectAfter,
			RefreshURL:   out.RedirectTo,
		})
	case out.Auth != nil:
		form := render.AuthForm{Intent: storefront.IntentLogin, Submit: "Log in", Login: out.Auth.Login, Message: out.Auth.Message}
		title := "Log in"
		if out.View == storefront.ViewRegister {
			form.Intent, form.Submit, title = storefront.IntentRegister, "Register", "Register"
		}
		return h.renderer.AuthPage(w, render.Page[render.AuthForm]{
			Title: title, Header: header, Notice: out.Notice, Content: form,
		})
	default:
		var view storefront.CatalogView
		if out.Catalog != nil {
			view = *out.Catalog
		}
		return h.renderer.CatalogPage(w, render.Page[storefront.CatalogView]{
			Title: "Catalog", Header: header, Notice: out.Notice, Content: view,
		})
	}
}

func inputFromForm(r *http.Request) storefront.Input {
	f := r.PostForm
	return storefront.Input{
		View:      storefront.View(f.Get("view")),
		ProductID: formInt(f.Get("product_id")),
		Delta:     formInt(f.Get("delta")),
		Checkout: model.CheckoutRequest{
			Name:      strings.TrimSpace(f.Get("name")),
			Card:      strings.TrimSpace(f.Get("card")),
			CVV:       strings.TrimSpace(f.Get("cvv")),
			City:      strings.TrimSpace(f.Get("city")),
			Street:    strings.TrimSpace(f.Get("street")),
			House:     strings.TrimSpace(f.Get("house")),
			Apartment: strings.TrimSpace(f.Get("apartment")),
		},
		Credentials: model.LoginRequest{
			Login:    strings.TrimSpace(f.Get("login")),
			Password: f.Get("password"),
		},
	}
}

// formInt reads an optional integer field; anything unparsable is zero.
func formInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func statusOf(res storefront.Result) int {
	switch res {
	case storefront.ResultOK:
		return http.StatusOK
	case storefront.ResultRejected:
		return http.StatusUnprocessableEntity
	case storefront.ResultUnauthenticated:
		return http.StatusUnauthorized
	case storefront.ResultInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
