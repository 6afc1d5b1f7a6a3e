package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/render"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/state"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

// stubAPI is a tiny storefront API: one product catalog, one cart, and a
// session that is valid while the "session" cookie equals "ok".
type stubAPI struct {
	mu       sync.Mutex
	qty      map[int]int
	mutating []string
	failAll  bool
	checkout string
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	signedIn := func(r *http.Request) bool {
		c, err := r.Cookie("session")
		return err == nil && c.Value == "ok"
	}
	status := func(w http.ResponseWriter, msg string) {
		if msg == "" {
			writeJSON(w, map[string]string{"status": "ok"})
			return
		}
		writeJSON(w, map[string]string{"status": "error", "message": msg})
	}

	mux.HandleFunc("GET /api/auth/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "authenticated": signedIn(r)})
	})
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		if s.failAll {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[{"id":1,"name":"Tea","price":2.5,"image_filename":"tea.png"},{"id":2,"name":"Coffee","price":3,"image_filename":"coffee.png"}]`)
	})
	mux.HandleFunc("GET /api/cart/items", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if q := s.qty[1]; q > 0 {
			total := 2.5 * float64(q)
			writeJSON(w, map[string]any{
				"items": []map[string]any{{"product_id": 1, "name": "Tea", "price": 2.5, "quantity": q, "total": total}},
				"total": total,
			})
			return
		}
		_, _ = io.WriteString(w, `{"items":[],"total":0}`)
	})
	mux.HandleFunc("POST /api/cart/{op}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID int `json:"product_id"`
			Delta     int `json:"delta"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.mutating = append(s.mutating, r.PathValue("op"))
		switch r.PathValue("op") {
		case "add":
			s.qty[body.ProductID]++
		case "change":
			s.qty[body.ProductID] += body.Delta
		case "remove":
			delete(s.qty, body.ProductID)
		}
		status(w, "")
	})
	mux.HandleFunc("POST /api/checkout", func(w http.ResponseWriter, r *http.Request) {
		status(w, s.checkout)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		status(w, "")
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "", Path: "/", MaxAge: -1})
		status(w, "")
	})
	return mux
}

func newTestRouter(t *testing.T) (http.Handler, *stubAPI) {
	t.Helper()
	api := &stubAPI{qty: map[int]int{}}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	logger := log.New(io.Discard, "", 0)
	base := clients.NewClient("storefront-api", srv.URL, &http.Client{Timeout: 5 * time.Second})
	cart := clients.NewCartClient(base)
	auth := clients.NewAuthClient(base)

	store := storefront.NewStore(clients.NewCatalogClient(base), cart, state.NewMemory(time.Minute), storefront.SyncSequenced, logger)
	registry := storefront.NewRegistry()
	storefront.NewActions(store, cart, clients.NewCheckoutClient(base), auth, nil, logger, storefront.ActionsConfig{
		RedirectDelay: 3 * time.Second,
	}).Register(registry)

	renderer, err := render.New(render.Options{StaticBaseURL: "/static", Currency: "₽"})
	require.NoError(t, err)

	return NewRouter(Deps{
		Logger:   logger,
		Cfg:      config.Config{CORSAllowOrigins: []string{"*"}, ViewerCookie: "sf_viewer"},
		Store:    store,
		Renderer: renderer,
		Registry: registry,
		Session:  auth,
		HealthProbes: []clients.HealthProbe{
			{Name: "storefront-api", Client: base, Path: "/api/products"},
		},
	}), api
}

const viewer = "0b5e1a8e-0000-4000-8000-000000000001"

func do(router http.Handler, method, target string, form url.Values, signedIn bool, headers ...string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	req.AddCookie(&http.Cookie{Name: "sf_viewer", Value: viewer})
	if signedIn {
		req.AddCookie(&http.Cookie{Name: "session", Value: "ok"})
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHealthRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "storefront", body["service"])
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-Id"))
}

func TestHealthUpstreams(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/health/upstreams", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.Contains(t, rr.Body.String(), `"name":"storefront-api"`)
}

func TestCatalogPageAnonymous(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	html := rr.Body.String()
	assert.Contains(t, html, "Tea")
	assert.Contains(t, html, "2.50 ₽")
	assert.NotContains(t, html, `data-action="add"`)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestCatalogPageSignedIn(t *testing.T) {
	router, api := newTestRouter(t)
	api.qty[1] = 2

	rr := do(router, http.MethodGet, "/", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	html := rr.Body.String()
	assert.Contains(t, html, `data-action="add" data-product-id="2"`)
	assert.Contains(t, html, `<span class="qty">2</span>`)
}

func TestCatalogLoadFailureRendersPlaceholder(t *testing.T) {
	router, api := newTestRouter(t)
	api.failAll = true

	rr := do(router, http.MethodGet, "/", nil, false)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Failed to load products")
}

func TestCartPageRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/cart", nil, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	rr = do(router, http.MethodGet, "/cart", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Your cart is empty")
	assert.Contains(t, rr.Body.String(), `<span id="total">0.00</span>`)
	assert.NotContains(t, rr.Body.String(), "checkout-btn")
}

func TestAddActionAnonymousMakesNoCall(t *testing.T) {
	router, api := newTestRouter(t)

	rr := do(router, http.MethodPost, "/actions/add", url.Values{"product_id": {"1"}}, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Authentication required")
	assert.Empty(t, api.mutating)
}

func TestChangeActionReloadsCatalog(t *testing.T) {
	router, api := newTestRouter(t)
	api.qty[1] = 1

	form := url.Values{"product_id": {"1"}, "delta": {"1"}, "view": {"catalog"}}
	rr := do(router, http.MethodPost, "/actions/change", form, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"change"}, api.mutating)
	assert.Contains(t, rr.Body.String(), `<span class="qty">2</span>`)
	assert.Contains(t, rr.Body.String(), "<html")
}

func TestChangeActionWithoutDeltaMakesNoCall(t *testing.T) {
	router, api := newTestRouter(t)
	api.qty[1] = 1

	for _, delta := range []string{"", "abc", "0"} {
		form := url.Values{"product_id": {"1"}, "view": {"cart"}}
		if delta != "" {
			form.Set("delta", delta)
		}
		rr := do(router, http.MethodPost, "/actions/change", form, true)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "delta %q", delta)
		assert.Contains(t, rr.Body.String(), "Invalid quantity")
	}
	assert.Empty(t, api.mutating)
}

func TestCrossSiteActionRefused(t *testing.T) {
	router, api := newTestRouter(t)

	rr := do(router, http.MethodPost, "/actions/add", url.Values{"product_id": {"1"}}, true,
		"Origin", "https://evil.example", "Sec-Fetch-Site", "cross-site")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, api.mutating)

	rr = do(router, http.MethodPost, "/actions/add", url.Values{"product_id": {"1"}}, true,
		"Origin", "http://example.com", "Sec-Fetch-Site", "same-origin")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"add"}, api.mutating)
}

func TestAnonymousActionAfterSignedInPage(t *testing.T) {
	router, api := newTestRouter(t)
	api.qty[1] = 3

	rr := do(router, http.MethodGet, "/", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `<span class="qty">3</span>`)

	rr = do(router, http.MethodPost, "/actions/add", url.Values{"product_id": {"1"}}, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotContains(t, rr.Body.String(), `<span class="qty">`)
	assert.Empty(t, api.mutating)
}

func TestRemoveActionFragment(t *testing.T) {
	router, api := newTestRouter(t)
	api.qty[1] = 3

	form := url.Values{"product_id": {"1"}, "view": {"cart"}}
	rr := do(router, http.MethodPost, "/actions/remove", form, true, middleware.HeaderFragment, "1")
	require.Equal(t, http.StatusOK, rr.Code)
	html := rr.Body.String()
	assert.NotContains(t, html, "<html")
	assert.Contains(t, html, "Your cart is empty")
}

func TestCheckoutActionConfirmed(t *testing.T) {
	router, _ := newTestRouter(t)

	form := url.Values{"name": {"Ann"}, "card": {"4111"}, "cvv": {"123"}, "city": {"Oslo"}, "street": {"Main"}, "house": {"1"}}
	rr := do(router, http.MethodPost, "/actions/checkout", form, true)
	require.Equal(t, http.StatusOK, rr.Code)
	html := rr.Body.String()
	assert.Contains(t, html, "Order placed!")
	assert.Contains(t, html, `content="3;url=/"`)
	assert.Contains(t, html, `name="city" value=""`)
}

func TestCheckoutActionRejected(t *testing.T) {
	router, api := newTestRouter(t)
	api.checkout = "Card declined"

	form := url.Values{"name": {"Ann"}, "card": {"4111"}, "cvv": {"123"}, "city": {"Oslo"}}
	rr := do(router, http.MethodPost, "/actions/checkout", form, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	html := rr.Body.String()
	assert.Contains(t, html, "Card declined")
	assert.Contains(t, html, `name="city" value="Oslo"`)
	assert.NotContains(t, html, "4111")
	assert.NotContains(t, html, `http-equiv="refresh"`)
}

func TestLoginRelaysSessionCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodPost, "/actions/login", url.Values{"login": {"ann"}, "password": {"pw"}}, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, "ok", session.Value)
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodPost, "/actions/logout", url.Values{}, true)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Contains(t, strings.Join(rr.Header().Values("Set-Cookie"), "\n"), "session=; Path=/; Max-Age=0")
}

func TestUnknownAction(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodPost, "/actions/teleport", url.Values{}, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown action")
}

func TestNewViewerGetsCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "sf_viewer=")
	assert.Contains(t, rr.Body.String(), `action="/actions/login"`)
}
