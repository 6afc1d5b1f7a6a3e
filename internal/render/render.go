// Package render turns storefront view models into HTML. Rendering never
// touches application state and always runs to completion into a buffer
// before anything is written out.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

//go:embed templates/*.html
var templatesFS embed.FS

const defaultCurrency = "₽"

type Options struct {
	StaticBaseURL string
	Currency      string
}

// HeaderData is rendered by the shared header on every page.
type HeaderData struct {
	Authenticated bool
}

// Page wraps shared header data and a notice around page-specific content.
type Page[T any] struct {
	Title   string
	Header  HeaderData
	Notice  *storefront.Notice
	Content T
	// RefreshAfter, when positive, sends the browser to RefreshURL after the
	// given delay.
	RefreshAfter time.Duration
	RefreshURL   string
}

type layoutData struct {
	Title   string
	Header  HeaderData
	Notice  *storefront.Notice
	Content any
	Refresh string
}

// AuthForm is the content of the login and register pages.
type AuthForm struct {
	Intent  storefront.Intent
	Submit  string
	Login   string
	Message string
}

type Renderer struct {
	pages map[string]*template.Template
}

func New(opts Options) (*Renderer, error) {
	if opts.Currency == "" {
		opts.Currency = defaultCurrency
	}
	static := strings.TrimRight(opts.StaticBaseURL, "/")

	funcs := template.FuncMap{
		"money":    Money,
		"currency": func() string { return opts.Currency },
		"image": func(name string) string {
			return static + "/" + url.PathEscape(name)
		},
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{"catalog", "cart", "checkout", "auth"} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templatesFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string { return d.StringFixed(2) }

func (r *Renderer) CatalogPage(w io.Writer, p Page[storefront.CatalogView]) error {
	return r.page(w, "catalog", p.Title, p.Header, p.Notice, p.Content, p.RefreshAfter, p.RefreshURL)
}

func (r *Renderer) CartPage(w io.Writer, p Page[storefront.CartView]) error {
	return r.page(w, "cart", p.Title, p.Header, p.Notice, p.Content, p.RefreshAfter, p.RefreshURL)
}

func (r *Renderer) CheckoutPage(w io.Writer, p Page[storefront.CheckoutView]) error {
	return r.page(w, "checkout", p.Title, p.Header, p.Notice, p.Content, p.RefreshAfter, p.RefreshURL)
}

func (r *Renderer) AuthPage(w io.Writer, p Page[AuthForm]) error {
	return r.page(w, "auth", p.Title, p.Header, p.Notice, p.Content, p.RefreshAfter, p.RefreshURL)
}

// CatalogFragment renders only the product grid, plus the notice if any.
func (r *Renderer) CatalogFragment(w io.Writer, v storefront.CatalogView, n *storefront.Notice) error {
	return r.fragment(w, "catalog", v, n)
}

// CartFragment renders only the cart table and total, plus the notice if any.
func (r *Renderer) CartFragment(w io.Writer, v storefront.CartView, n *storefront.Notice) error {
	return r.fragment(w, "cart", v, n)
}

func (r *Renderer) page(w io.Writer, name, title string, header HeaderData, notice *storefront.Notice, content any, after time.Duration, to string) error {
	data := layoutData{Title: title, Header: header, Notice: notice, Content: content}
	if after > 0 && to != "" {
		data.Refresh = fmt.Sprintf("%d;url=%s", int(after.Round(time.Second)/time.Second), to)
	}
	return r.execute(w, name, "layout", data)
}

func (r *Renderer) fragment(w io.Writer, name string, content any, notice *storefront.Notice) error {
	var buf bytes.Buffer
	t := r.pages[name]
	if err := t.ExecuteTemplate(&buf, "notice", notice); err != nil {
		return fmt.Errorf("render notice: %w", err)
	}
	if err := t.ExecuteTemplate(&buf, name, content); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (r *Renderer) execute(w io.Writer, page, tmpl string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
