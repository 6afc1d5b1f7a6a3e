package model

import "github.com/shopspring/decimal"

// CartLine is one product in the viewer's cart as reported by the cart API.
// Total is authoritative; the storefront only displays it.
type CartLine struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type CartSnapshot struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (s CartSnapshot) Empty() bool { return len(s.Items) == 0 }

type CartItemRequest struct {
	ProductID int `json:"product_id"`
}

type ChangeQuantityRequest struct {
	ProductID int `json:"product_id"`
	Delta     int `json:"delta"`
}
