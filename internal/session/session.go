// Package session computes the per-page-load authentication signal.
//
// The signal is resolved once, before any catalog or cart work starts, by
// asking the session collaborator directly. Everything downstream reads the
// resolved flag from the request context instead of deriving it again.
package session

import (
	"context"
	"log"
	"net/http"
)

// Probe answers "is the viewer on ctx signed in".
type Probe interface {
	Authenticated(ctx context.Context) (bool, error)
}

// Flag is the resolved signal for one page load. The zero value is a
// resolved, unauthenticated flag.
type Flag struct {
	authenticated bool
}

func (f Flag) Authenticated() bool { return f.authenticated }

func NewFlag(authenticated bool) Flag { return Flag{authenticated: authenticated} }

type ctxKey struct{}

// Resolve queries probe once. A failed probe resolves to unauthenticated so
// the page still renders; the failure is logged.
func Resolve(ctx context.Context, probe Probe, logger *log.Logger) Flag {
	ok, err := probe.Authenticated(ctx)
	if err != nil {
		if logger != nil {
			logger.Printf("session probe failed, treating viewer as anonymous: %v", err)
		}
		return Flag{}
	}
	return Flag{authenticated: ok}
}

func WithFlag(ctx context.Context, f Flag) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// FromContext returns the flag resolved for this page load. A context without
// one is anonymous.
func FromContext(ctx context.Context) Flag {
	if f, ok := ctx.Value(ctxKey{}).(Flag); ok {
		return f
	}
	return Flag{}
}

// Middleware resolves the flag for every request it wraps.
func Middleware(probe Probe, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f := Resolve(r.Context(), probe, logger)
			next.ServeHTTP(w, r.WithContext(WithFlag(r.Context(), f)))
		})
	}
}
