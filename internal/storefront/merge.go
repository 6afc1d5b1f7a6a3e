package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

// MergeCatalog joins the product list with the viewer's cart on product id.
// Cart lines whose product is not in the list are ignored here; they remain
// visible in the cart view only.
func MergeCatalog(products []model.Product, cart *model.CartSnapshot, authenticated bool) CatalogView {
	view := CatalogView{
		Authenticated: authenticated,
		Products:      make([]ProductView, 0, len(products)),
	}

	var idx CartIndex
	if authenticated && cart != nil {
		idx = BuildCartIndex(*cart)
	}

	for _, p := range products {
		pv := ProductView{Product: p, State: StateAnonymous}
		if authenticated {
			pv.State = StateAddable
			if qty, ok := idx[p.ID]; ok {
				pv.State = StateInCart
				pv.Quantity = qty
			}
		}
		view.Products = append(view.Products, pv)
	}
	return view
}

// CartViewOf maps a snapshot to the cart view. The total is the one the cart
// API reported, except that an empty cart always shows zero.
func CartViewOf(snap model.CartSnapshot) CartView {
	if snap.Empty() {
		return CartView{Empty: true, Total: decimal.Zero}
	}
	lines := make([]model.CartLine, len(snap.Items))
	copy(lines, snap.Items)
	return CartView{
		Lines:        lines,
		Total:        snap.Total,
		ShowCheckout: true,
	}
}
