package clients

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

// AuthClient talks to the session collaborator. The storefront never looks
// inside credentials; it forwards them and reads the outcome.
type AuthClient struct{ c *Client }

func NewAuthClient(c *Client) *AuthClient { return &AuthClient{c: c} }

// Authenticated asks the API whether the credentials on ctx belong to a
// signed-in viewer.
func (ac *AuthClient) Authenticated(ctx context.Context) (bool, error) {
	var st model.SessionStatus
	if err := ac.c.Call(ctx, http.MethodGet, "/api/auth/status", nil, &st); err != nil {
		return false, err
	}
	return st.Authenticated, nil
}

func (ac *AuthClient) Login(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error) {
	return ac.post(ctx, "/api/auth/login", req)
}

func (ac *AuthClient) Register(ctx context.Context, req model.LoginRequest) (model.StatusResponse, error) {
	return ac.post(ctx, "/api/auth/register", req)
}

func (ac *AuthClient) Logout(ctx context.Context) (model.StatusResponse, error) {
	return ac.post(ctx, "/api/auth/logout", nil)
}

func (ac *AuthClient) post(ctx context.Context, path string, body any) (model.StatusResponse, error) {
	var st model.StatusResponse
	if err := ac.c.Call(ctx, http.MethodPost, path, body, &st); err != nil {
		return model.StatusResponse{}, err
	}
	return st, nil
}
