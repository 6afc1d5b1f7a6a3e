package clients

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

type CartClient struct{ c *Client }

func NewCartClient(c *Client) *CartClient { return &CartClient{c: c} }

func (cc *CartClient) Items(ctx context.Context) (model.CartSnapshot, error) {
	var snap model.CartSnapshot
	if err := cc.c.Call(ctx, http.MethodGet, "/api/cart/items", nil, &snap); err != nil {
		return model.CartSnapshot{}, err
	}
	return snap, nil
}

func (cc *CartClient) Add(ctx context.Context, productID int) (model.StatusResponse, error) {
	return cc.mutate(ctx, "/api/cart/add", model.CartItemRequest{ProductID: productID})
}

func (cc *CartClient) Change(ctx context.Context, productID, delta int) (model.StatusResponse, error) {
	return cc.mutate(ctx, "/api/cart/change", model.ChangeQuantityRequest{ProductID: productID, Delta: delta})
}

func (cc *CartClient) Remove(ctx context.Context, productID int) (model.StatusResponse, error) {
	return cc.mutate(ctx, "/api/cart/remove", model.CartItemRequest{ProductID: productID})
}

func (cc *CartClient) mutate(ctx context.Context, path string, body any) (model.StatusResponse, error) {
	var st model.StatusResponse
	if err := cc.c.Call(ctx, http.MethodPost, path, body, &st); err != nil {
		return model.StatusResponse{}, err
	}
	return st, nil
}
