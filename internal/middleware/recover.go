package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

// Recover turns a panic in a page or action into a 500 with a JSON body. A
// response that already started is left alone; only the log records it.
func Recover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				cid := GetCorrelationID(r.Context())
				logger.Printf("panic: %s %s cid=%s: %v\n%s", r.Method, r.URL.Path, cid, p, debug.Stack())
				if rec.status != 0 {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(model.ErrorResponse{
					Error:         "internal server error",
					CorrelationID: cid,
				})
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
