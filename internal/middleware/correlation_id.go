package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const HeaderCorrelationID = "X-Correlation-Id"

const maxCorrelationIDLen = 128

// CorrelationID reuses the caller's id when it looks sane, otherwise mints
// one. The id is echoed on the response and sent to the API on every call.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if !validCorrelationID(cid) {
			cid = uuid.NewString()
		}

		w.Header().Set(HeaderCorrelationID, cid)

		ctx := context.WithValue(r.Context(), ctxCorrelationID, cid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validCorrelationID accepts short printable ASCII ids; anything else would
// end up verbatim in logs and upstream headers.
func validCorrelationID(cid string) bool {
	if cid == "" || len(cid) > maxCorrelationIDLen {
		return false
	}
	for i := 0; i < len(cid); i++ {
		if cid[i] < 0x21 || cid[i] > 0x7e {
			return false
		}
	}
	return true
}

func GetCorrelationID(ctx context.Context) string {
	if v := ctx.Value(ctxCorrelationID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
