package storefront

import (
	"context"
	"sort"
	"sync"
)

// Intent names one user action. Markup refers to intents by these names
// through data-action attributes and form targets.
type Intent string

const (
	IntentAdd      Intent = "add"
	IntentChange   Intent = "change"
	IntentRemove   Intent = "remove"
	IntentCheckout Intent = "checkout"
	IntentLogout   Intent = "logout"
	IntentLogin    Intent = "login"
	IntentRegister Intent = "register"
)

type Handler func(ctx context.Context, in Input) Outcome

// Registry dispatches intents to their single handler.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Intent]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Intent]Handler)}
}

// Register binds h to intent, replacing any previous handler.
func (r *Registry) Register(intent Intent, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[intent] = h
}

func (r *Registry) Dispatch(ctx context.Context, intent Intent, in Input) (Outcome, bool) {
	r.mu.RLock()
	h, ok := r.handlers[intent]
	r.mu.RUnlock()
	if !ok {
		return Outcome{}, false
	}
	return h(ctx, in), true
}

func (r *Registry) Intents() []Intent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Intent, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
