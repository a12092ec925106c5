package api

import (
	"context"
	"io"
	"net/http"

	"github.com/diagnosis/concierge/internal/domain"
)

func (c *Client) users() Resource[domain.User] {
	return NewResource[domain.User](c, "/users")
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	return c.users().List(ctx, nil)
}

func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return c.users().Get(ctx, id)
}

func (c *Client) CreateUser(ctx context.Context, in domain.RegisterRequest) (*domain.User, error) {
	return c.users().Create(ctx, in)
}

func (c *Client) UpdateUser(ctx context.Context, id string, in domain.UserUpdate) (*domain.User, error) {
	return c.users().Update(ctx, id, in)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.users().Delete(ctx, id)
}

// UpdateMe updates the profile of the token's owner.
func (c *Client) UpdateMe(ctx context.Context, in domain.UserUpdate) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadProfileImage(ctx context.Context, filename string, body io.Reader) (*domain.User, error) {
	var out domain.User
	up := Upload{Field: "file", Filename: filename, Body: body}
	if err := c.doMultipart(ctx, http.MethodPost, "/users/me/profile-image", up, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
