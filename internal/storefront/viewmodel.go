package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

// ProductState is how a catalog entry presents cart controls.
type ProductState int

const (
	// StateAnonymous shows no cart control at all.
	StateAnonymous ProductState = iota
	// StateAddable shows an add control.
	StateAddable
	// StateInCart shows a quantity stepper.
	StateInCart
)

func (s ProductState) String() string {
	switch s {
	case StateAddable:
		return "addable"
	case StateInCart:
		return "in_cart"
	default:
		return "anonymous"
	}
}

// CartIndex maps product id to quantity for one render. It is rebuilt from
// the snapshot every time and never stored.
type CartIndex map[int]int

func BuildCartIndex(snap model.CartSnapshot) CartIndex {
	idx := make(CartIndex, len(snap.Items))
	for _, line := range snap.Items {
		idx[line.ProductID] = line.Quantity
	}
	return idx
}

type ProductView struct {
	model.Product
	State    ProductState
	Quantity int
}

type CatalogView struct {
	Authenticated bool
	Products      []ProductView
	// Failed is set when the data behind the view could not be loaded.
	Failed bool
}

func (v CatalogView) Empty() bool { return len(v.Products) == 0 }

type CartView struct {
	Lines        []model.CartLine
	Total        decimal.Decimal
	Empty        bool
	ShowCheckout bool
	Failed       bool
}

// CheckoutView is what the checkout page shows after a submission.
type CheckoutView struct {
	Submitted bool
	Confirmed bool
	Message   string
	// Form holds the values to pre-fill. It is blank after a confirmed order.
	Form model.CheckoutRequest
}

// AuthView backs the login and register forms.
type AuthView struct {
	Login   string
	Message string
}

func (p ProductView) Addable() bool { return p.State == StateAddable }
func (p ProductView) InCart() bool  { return p.State == StateInCart }
