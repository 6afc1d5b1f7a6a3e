package middleware

import (
	"context"
	"net/http"
	"sync"
)

// Credentials carries the viewer's session cookies to the API and collects
// the cookies the API sets in return.
type Credentials struct {
	mu       sync.Mutex
	incoming []*http.Cookie
	issued   []*http.Cookie
}

func NewCredentials(cookies []*http.Cookie) *Credentials {
	return &Credentials{incoming: cookies}
}

// Cookies returns what should be sent upstream: the incoming cookies, with
// anything issued earlier in the same request taking precedence.
func (c *Credentials) Cookies() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()

	issued := make(map[string]*http.Cookie, len(c.issued))
	for _, ck := range c.issued {
		issued[ck.Name] = ck
	}

	out := make([]*http.Cookie, 0, len(c.incoming)+len(c.issued))
	for _, ck := range c.incoming {
		if _, ok := issued[ck.Name]; !ok {
			out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	for _, ck := range c.issued {
		if ck.MaxAge < 0 || ck.Value == "" {
			continue
		}
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	return out
}

func (c *Credentials) Issue(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range cookies {
		replaced := false
		for i := range c.issued {
			if c.issued[i].Name == ck.Name {
				c.issued[i] = ck
				replaced = true
				break
			}
		}
		if !replaced {
			c.issued = append(c.issued, ck)
		}
	}
}

func (c *Credentials) Issued() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*http.Cookie, len(c.issued))
	copy(out, c.issued)
	return out
}

func WithCredentials(ctx context.Context, c *Credentials) context.Context {
	return context.WithValue(ctx, ctxCredentials, c)
}

func GetCredentials(ctx context.Context) *Credentials {
	if v := ctx.Value(ctxCredentials); v != nil {
		if c, ok := v.(*Credentials); ok {
			return c
		}
	}
	return nil
}

// ForwardCredentials captures the browser's cookies (minus the ones listed in
// skip) for the API and relays API-issued cookies back on the response.
func ForwardCredentials(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookies []*http.Cookie
			for _, ck := range r.Cookies() {
				if !contains(skip, ck.Name) {
					cookies = append(cookies, ck)
				}
			}
			creds := NewCredentials(cookies)
			cw := &cookieRelayWriter{ResponseWriter: w, creds: creds}
			next.ServeHTTP(cw, r.WithContext(WithCredentials(r.Context(), creds)))
		})
	}
}

type cookieRelayWriter struct {
	http.ResponseWriter
	creds   *Credentials
	flushed bool
}

func (w *cookieRelayWriter) relay() {
	if w.flushed {
		return
	}
	w.flushed = true
	for _, ck := range w.creds.Issued() {
		relayed := *ck
		relayed.Domain = ""
		http.SetCookie(w.ResponseWriter, &relayed)
	}
}

func (w *cookieRelayWriter) WriteHeader(status int) {
	w.relay()
	w.ResponseWriter.WriteHeader(status)
}

func (w *cookieRelayWriter) Write(b []byte) (int, error) {
	w.relay()
	return w.ResponseWriter.Write(b)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
