package clients

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

type CheckoutClient struct{ c *Client }

func NewCheckoutClient(c *Client) *CheckoutClient { return &CheckoutClient{c: c} }

func (cc *CheckoutClient) Checkout(ctx context.Context, req model.CheckoutRequest) (model.StatusResponse, error) {
	var st model.StatusResponse
	if err := cc.c.Call(ctx, http.MethodPost, "/api/checkout", req, &st); err != nil {
		return model.StatusResponse{}, err
	}
	return st, nil
}
