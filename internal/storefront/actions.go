package storefront

import (
	"context"
	"log"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

// View names the page context an outcome is drawn in.
type View string

const (
	ViewCatalog  View = "catalog"
	ViewCart     View = "cart"
	ViewCheckout View = "checkout"
	ViewLogin    View = "login"
	ViewRegister View = "register"
)

type Result int

const (
	ResultOK Result = iota
	// ResultRejected means the API answered but refused on business grounds.
	ResultRejected
	ResultUnauthenticated
	// ResultFailed means a transport failure on the mutation or the reload.
	ResultFailed
	ResultInvalid
)

// Input is everything an action handler may read from a submitted form.
type Input struct {
	View        View
	ProductID   int
	Delta       int
	Checkout    model.CheckoutRequest
	Credentials model.LoginRequest
}

// Outcome is the result of one action: the view to draw and what to draw it
// with. Exactly one of Catalog, Cart, Checkout or Auth is set unless the
// outcome is a redirect.
type Outcome struct {
	Result Result
	View   View
	Notice *Notice

	Catalog  *CatalogView
	Cart     *CartView
	Checkout *CheckoutView
	Auth     *AuthView

	RedirectTo    string
	RedirectAfter time.Duration
}

type CartMutator interface {
	Add(ctx context.Context, productID int) (model.StatusResponse, error)
	Change(ctx context.Context, productID, delta int) (model.StatusResponse, error)
	Remove(ctx context.Context, productID int) (model.StatusResponse, error)
}

type CheckoutSubmitter interface {
	Checkout(ctx context.Context, req model.CheckoutRequest) (model.StatusResponse, error)
}

type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error)
	Register(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error)
	Logout(ctx context.Context) (model.StatusResponse, error)
}

type ActivityPublisher interface {
	Publish(ctx context.Context, a events.Activity) error
}

type ActionsConfig struct {
	// RedirectDelay is how long the checkout confirmation stays up.
	RedirectDelay time.Duration
	HomePath      string
}

// Actions holds one handler per intent. A handler performs at most one
// mutating call and, when the call went through, reloads the view it was
// issued from. Nothing is updated before the API answers.
type Actions struct {
	store     *Store
	cart      CartMutator
	checkout  CheckoutSubmitter
	auth      Authenticator
	publisher ActivityPublisher
	logger    *log.Logger
	cfg       ActionsConfig
}

func NewActions(store *Store, cart CartMutator, checkout CheckoutSubmitter, auth Authenticator, publisher ActivityPublisher, logger *log.Logger, cfg ActionsConfig) *Actions {
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Actions{
		store:     store,
		cart:      cart,
		checkout:  checkout,
		auth:      auth,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// Register binds every intent to its handler.
func (a *Actions) Register(r *Registry) {
	r.Register(IntentAdd, a.Add)
	r.Register(IntentChange, a.Change)
	r.Register(IntentRemove, a.Remove)
	r.Register(IntentCheckout, a.Checkout)
	r.Register(IntentLogout, a.Logout)
	r.Register(IntentLogin, a.Login)
	r.Register(IntentRegister, a.RegisterAccount)
}

func (a *Actions) Add(ctx context.Context, in Input) Outcome {
	view := pickView(in.View, ViewCatalog)
	return a.mutateCart(ctx, in, view, NoticeAddFailed,
		func() (model.StatusResponse, error) { return a.cart.Add(ctx, in.ProductID) },
		events.Activity{Kind: events.KindCartItemAdded, ProductID: in.ProductID, Delta: 1})
}

func (a *Actions) Change(ctx context.Context, in Input) Outcome {
	view := pickView(in.View, ViewCatalog)
	return a.mutateCart(ctx, in, view, NoticeChangeFailed,
		func() (model.StatusResponse, error) { return a.cart.Change(ctx, in.ProductID, in.Delta) },
		events.Activity{Kind: events.KindCartQuantityChanged, ProductID: in.ProductID, Delta: in.Delta})
}

func (a *Actions) Remove(ctx context.Context, in Input) Outcome {
	view := pickView(in.View, ViewCart)
	return a.mutateCart(ctx, in, view, NoticeRemoveFailed,
		func() (model.StatusResponse, error) { return a.cart.Remove(ctx, in.ProductID) },
		events.Activity{Kind: events.KindCartItemRemoved, ProductID: in.ProductID})
}

func (a *Actions) mutateCart(ctx context.Context, in Input, view View, failure string, call func() (model.StatusResponse, error), activity events.Activity) Outcome {
	if !session.FromContext(ctx).Authenticated() {
		return a.withPrior(ctx, Outcome{Result: ResultUnauthenticated, View: view, Notice: errorNotice(NoticeAuthRequired)})
	}
	if in.ProductID <= 0 {
		return a.withPrior(ctx, Outcome{Result: ResultInvalid, View: view, Notice: errorNotice(NoticeUnknownProduct)})
	}
	if activity.Kind == events.KindCartQuantityChanged && in.Delta == 0 {
		return a.withPrior(ctx, Outcome{Result: ResultInvalid, View: view, Notice: errorNotice(NoticeInvalidQuantity)})
	}

	st, err := call()
	if err != nil {
		a.logf("%s: viewer=%s product=%d: %v", failure, middleware.GetViewerID(ctx), in.ProductID, err)
		return a.withPrior(ctx, Outcome{Result: ResultFailed, View: view, Notice: errorNotice(failure)})
	}

	out := Outcome{Result: ResultOK, View: view}
	if st.OK() {
		a.publish(ctx, activity)
	} else {
		out.Result = ResultRejected
		out.Notice = errorNotice(messageOr(st.Message, failure))
	}
	return a.reload(ctx, out)
}

func (a *Actions) Checkout(ctx context.Context, in Input) Outcome {
	form := scrubPayment(in.Checkout)
	if !session.FromContext(ctx).Authenticated() {
		return Outcome{
			Result:   ResultUnauthenticated,
			View:     ViewCheckout,
			Notice:   errorNotice(NoticeAuthRequired),
			Checkout: &CheckoutView{Form: form},
		}
	}

	st, err := a.checkout.Checkout(ctx, in.Checkout)
	if err != nil {
		a.logf("checkout: viewer=%s: %v", middleware.GetViewerID(ctx), err)
		return Outcome{
			Result:   ResultFailed,
			View:     ViewCheckout,
			Checkout: &CheckoutView{Submitted: true, Message: NoticeCheckoutFailed, Form: form},
		}
	}
	if !st.OK() {
		return Outcome{
			Result:   ResultRejected,
			View:     ViewCheckout,
			Checkout: &CheckoutView{Submitted: true, Message: messageOr(st.Message, NoticeCheckoutFailed), Form: form},
		}
	}

	a.publish(ctx, events.Activity{Kind: events.KindCheckoutSubmitted})
	return Outcome{
		Result:        ResultOK,
		View:          ViewCheckout,
		Checkout:      &CheckoutView{Submitted: true, Confirmed: true, Message: NoticeOrderPlaced},
		RedirectTo:    a.cfg.HomePath,
		RedirectAfter: a.cfg.RedirectDelay,
	}
}

func (a *Actions) Logout(ctx context.Context, in Input) Outcome {
	if !session.FromContext(ctx).Authenticated() {
		return a.withPrior(ctx, Outcome{Result: ResultUnauthenticated, View: ViewCatalog, Notice: errorNotice(NoticeAuthRequired)})
	}
	if _, err := a.auth.Logout(ctx); err != nil {
		a.logf("logout: viewer=%s: %v", middleware.GetViewerID(ctx), err)
		return a.withPrior(ctx, Outcome{Result: ResultFailed, View: ViewCatalog, Notice: errorNotice(NoticeLogoutFailed)})
	}
	a.store.Forget(ctx, middleware.GetViewerID(ctx))
	// The flag for this page load still says authenticated; the redirect
	// starts a new page load that resolves it again.
	return Outcome{Result: ResultOK, View: ViewCatalog, RedirectTo: a.cfg.HomePath}
}

func (a *Actions) Login(ctx context.Context, in Input) Outcome {
	return a.authenticate(ctx, in, ViewLogin, NoticeLoginFailed, a.auth.Login)
}

// RegisterAccount handles the register intent.
func (a *Actions) RegisterAccount(ctx context.Context, in Input) Outcome {
	return a.authenticate(ctx, in, ViewRegister, NoticeRegisterFailed, a.auth.Register)
}

func (a *Actions) authenticate(ctx context.Context, in Input, view View, failure string, call func(context.Context, model.LoginRequest) (model.StatusResponse, error)) Outcome {
	st, err := call(ctx, in.Credentials)
	if err != nil {
		a.logf("%s: %v", failure, err)
		return Outcome{Result: ResultFailed, View: view, Auth: &AuthView{Login: in.Credentials.Login, Message: failure}}
	}
	if !st.OK() {
		return Outcome{Result: ResultRejected, View: view, Auth: &AuthView{Login: in.Credentials.Login, Message: messageOr(st.Message, failure)}}
	}
	a.store.Forget(ctx, middleware.GetViewerID(ctx))
	return Outcome{Result: ResultOK, View: view, RedirectTo: a.cfg.HomePath}
}

// reload re-fetches the view's data after a mutation the API accepted.
func (a *Actions) reload(ctx context.Context, out Outcome) Outcome {
	viewerID := middleware.GetViewerID(ctx)
	switch out.View {
	case ViewCart:
		cv, err := a.store.LoadCart(ctx, viewerID)
		out.Cart = &cv
		if err != nil {
			a.reloadFailed(&out, NoticeLoadCartFailed, err)
		}
	default:
		out.View = ViewCatalog
		cv, err := a.store.LoadProducts(ctx, viewerID, session.FromContext(ctx).Authenticated())
		out.Catalog = &cv
		if err != nil {
			a.reloadFailed(&out, NoticeLoadProductsFailed, err)
		}
	}
	return out
}

func (a *Actions) reloadFailed(out *Outcome, notice string, err error) {
	a.logf("reload %s: %v", out.View, err)
	if out.Notice == nil {
		out.Notice = errorNotice(notice)
	}
	if out.Result == ResultOK {
		out.Result = ResultFailed
	}
}

// withPrior attaches the last committed view so a refused or failed action
// leaves the page as it was. Without one it falls back to a fresh load.
// Anonymous viewers always land on the catalog.
func (a *Actions) withPrior(ctx context.Context, out Outcome) Outcome {
	viewerID := middleware.GetViewerID(ctx)
	authenticated := session.FromContext(ctx).Authenticated()
	if !authenticated {
		out.View = ViewCatalog
	}
	switch out.View {
	case ViewCart:
		if cv, ok := a.store.PriorCart(ctx, viewerID, authenticated); ok {
			out.Cart = &cv
			return out
		}
		cv, err := a.store.LoadCart(ctx, viewerID)
		if err != nil {
			a.logf("reload cart: %v", err)
		}
		out.Cart = &cv
	default:
		out.View = ViewCatalog
		if cv, ok := a.store.PriorCatalog(ctx, viewerID, authenticated); ok {
			out.Catalog = &cv
			return out
		}
		cv, err := a.store.LoadProducts(ctx, viewerID, authenticated)
		if err != nil {
			a.logf("reload catalog: %v", err)
		}
		out.Catalog = &cv
	}
	return out
}

func (a *Actions) publish(ctx context.Context, activity events.Activity) {
	activity.ViewerID = middleware.GetViewerID(ctx)
	activity.CorrelationID = middleware.GetCorrelationID(ctx)
	if err := a.publisher.Publish(ctx, activity); err != nil {
		a.logf("publish %s: %v", activity.Kind, err)
	}
}

func (a *Actions) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

func pickView(v, def View) View {
	switch v {
	case ViewCatalog, ViewCart:
		return v
	default:
		return def
	}
}

func messageOr(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}

// scrubPayment keeps the address part of a checkout form for re-display and
// drops the card details.
func scrubPayment(req model.CheckoutRequest) model.CheckoutRequest {
	req.Card = ""
	req.CVV = ""
	return req
}
