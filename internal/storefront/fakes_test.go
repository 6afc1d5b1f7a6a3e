package storefront

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

// fakeAPI is an in-memory storefront API. Func fields, when set, override
// the default behavior of the matching call.
type fakeAPI struct {
	mu       sync.Mutex
	products []model.Product
	qty      map[int]int
	calls    map[string]int

	listFunc     func(ctx context.Context) ([]model.Product, error)
	itemsFunc    func(ctx context.Context) (model.CartSnapshot, error)
	mutateFunc   func(ctx context.Context, op string, productID, delta int) (model.StatusResponse, error)
	checkoutFunc func(ctx context.Context, req model.CheckoutRequest) (model.StatusResponse, error)
	loginFunc    func(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error)
	logoutFunc   func(ctx context.Context) (model.StatusResponse, error)
}

func newFakeAPI(products ...model.Product) *fakeAPI {
	return &fakeAPI{products: products, qty: map[int]int{}, calls: map[string]int{}}
}

func product(id int, name, price string) model.Product {
	return model.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), ImageFilename: name + ".png"}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.record("list")
	if f.listFunc != nil {
		return f.listFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Product(nil), f.products...), nil
}

func (f *fakeAPI) Items(ctx context.Context) (model.CartSnapshot, error) {
	f.record("items")
	if f.itemsFunc != nil {
		return f.itemsFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var snap model.CartSnapshot
	for _, p := range f.products {
		q, ok := f.qty[p.ID]
		if !ok {
			continue
		}
		line := model.CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: q,
			Total: p.Price.Mul(decimal.NewFromInt(int64(q)))}
		snap.Items = append(snap.Items, line)
		snap.Total = snap.Total.Add(line.Total)
	}
	return snap, nil
}

func (f *fakeAPI) mutate(ctx context.Context, op string, productID, delta int) (model.StatusResponse, error) {
	f.record(op)
	if f.mutateFunc != nil {
		return f.mutateFunc(ctx, op, productID, delta)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch op {
	case "add":
		f.qty[productID]++
	case "change":
		f.qty[productID] += delta
		if f.qty[productID] <= 0 {
			delete(f.qty, productID)
		}
	case "remove":
		delete(f.qty, productID)
	}
	return model.StatusResponse{Status: model.StatusOK}, nil
}

func (f *fakeAPI) Add(ctx context.Context, productID int) (model.StatusResponse, error) {
	return f.mutate(ctx, "add", productID, 1)
}

func (f *fakeAPI) Change(ctx context.Context, productID, delta int) (model.StatusResponse, error) {
	return f.mutate(ctx, "change", productID, delta)
}

func (f *fakeAPI) Remove(ctx context.Context, productID int) (model.StatusResponse, error) {
	return f.mutate(ctx, "remove", productID, 0)
}

func (f *fakeAPI) Checkout(ctx context.Context, req model.CheckoutRequest) (model.StatusResponse, error) {
	f.record("checkout")
	if f.checkoutFunc != nil {
		return f.checkoutFunc(ctx, req)
	}
	return model.StatusResponse{Status: model.StatusOK}, nil
}

func (f *fakeAPI) Login(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error) {
	f.record("login")
	if f.loginFunc != nil {
		return f.loginFunc(ctx, req)
	}
	return model.StatusResponse{Status: model.StatusOK}, nil
}

func (f *fakeAPI) Register(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error) {
	f.record("register")
	return model.StatusResponse{Status: model.StatusOK}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) (model.StatusResponse, error) {
	f.record("logout")
	if f.logoutFunc != nil {
		return f.logoutFunc(ctx)
	}
	return model.StatusResponse{Status: model.StatusOK}, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []events.Activity
}

func (p *recordingPublisher) Publish(ctx context.Context, a events.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, a)
	return nil
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.sent))
	for _, a := range p.sent {
		out = append(out, a.Kind)
	}
	return out
}

func viewerCtx(viewerID string, authenticated bool) context.Context {
	ctx := middleware.WithViewerID(context.Background(), viewerID)
	return session.WithFlag(ctx, session.NewFlag(authenticated))
}
