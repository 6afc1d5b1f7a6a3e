package middleware

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

// SameOrigin refuses state-changing requests another site tries to make
// with the viewer's cookies. Sec-Fetch-Site decides when the browser sends
// it; otherwise the Origin host must be this host or an origin listed in
// allowOrigins. Requests carrying neither header are not from a browser
// page and pass through.
func SameOrigin(allowOrigins []string) func(http.Handler) http.Handler {
	set := newOriginSet(allowOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) || sameOrigin(r, set) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{
				Error:         "cross-site request refused",
				CorrelationID: GetCorrelationID(r.Context()),
			})
		})
	}
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

func sameOrigin(r *http.Request, set originSet) bool {
	origin := r.Header.Get("Origin")

	switch r.Header.Get("Sec-Fetch-Site") {
	case "same-origin", "none":
		return true
	case "":
	default:
		return origin != "" && set.listed(origin)
	}

	if origin == "" {
		return true
	}
	if set.listed(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
