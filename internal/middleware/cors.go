package middleware

import (
	"net/http"
	"strings"
)

// HeaderFragment asks for the bare view markup instead of a full page.
const HeaderFragment = "X-Storefront-Fragment"

// corsHeaders are the request headers a storefront script may send: form
// posts, a correlation id, and the fragment switch.
var corsHeaders = strings.Join([]string{"Content-Type", HeaderCorrelationID, HeaderFragment}, ", ")

// originSet matches the Origin header against CORS_ALLOW_ORIGINS. A lone "*"
// matches any origin.
type originSet struct {
	any     bool
	origins map[string]struct{}
}

func newOriginSet(allow []string) originSet {
	set := originSet{origins: make(map[string]struct{}, len(allow))}
	for _, o := range allow {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		switch o {
		case "":
		case "*":
			set.any = true
		default:
			set.origins[o] = struct{}{}
		}
	}
	return set
}

func (s originSet) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if s.any {
		return true
	}
	_, ok := s.origins[strings.ToLower(origin)]
	return ok
}

// listed reports whether origin is named explicitly; "*" does not count.
func (s originSet) listed(origin string) bool {
	_, ok := s.origins[strings.ToLower(origin)]
	return ok
}

// CORS answers preflights and tags responses for allowed origins. Pages rely
// on the viewer and session cookies, so the allowed origin is echoed back
// with credentials enabled rather than answered with a wildcard.
func CORS(allowOrigins []string) func(http.Handler) http.Handler {
	set := newOriginSet(allowOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			allowed := set.allows(origin)
			if allowed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", HeaderCorrelationID)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					h.Add("Vary", "Access-Control-Request-Method")
					h.Add("Vary", "Access-Control-Request-Headers")
					h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Set("Access-Control-Max-Age", "600")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
