package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxCorrelationID ctxKey = "correlation_id"
	ctxViewerID      ctxKey = "viewer_id"
	ctxCredentials   ctxKey = "credentials"
)

// Viewer assigns every browser a stable opaque id, kept in cookieName, that
// keys the per-viewer page state. It carries no authority: authentication
// is the API's business.
func Viewer(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cookieName); err == nil {
				id = strings.TrimSpace(c.Value)
			}
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), ctxViewerID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetViewerID(ctx context.Context) string {
	if v := ctx.Value(ctxViewerID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithViewerID is used by callers that drive the storefront outside an HTTP
// request, tests mostly.
func WithViewerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxViewerID, id)
}
