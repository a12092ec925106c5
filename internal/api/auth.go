package api

import (
	"context"
	"net/http"

	"github.com/diagnosis/concierge/internal/domain"
)

// Login exchanges credentials for a bearer token. The upstream expects an
// OAuth2 password form, so the email travels as "username".
func (c *Client) Login(ctx context.Context, email, password string) (*domain.TokenResponse, error) {
	var out domain.TokenResponse
	form := domain.LoginForm{Username: email, Password: password}
	if err := c.doForm(ctx, "/auth/token", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
