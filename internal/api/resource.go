package api

import (
	"context"
	"net/http"
)

// Resource is a REST collection at a fixed path.
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{c: c, path: path}
}

func (r Resource[T]) List(ctx context.Context, q any) ([]T, error) {
	var out []T
	if err := r.c.doJSON(ctx, http.MethodGet, r.path, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.c.doJSON(ctx, http.MethodGet, itemPath(r.path, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Create(ctx context.Context, in any, opts ...requestOption) (*T, error) {
	var out T
	if err := r.c.doJSON(ctx, http.MethodPost, r.path, nil, in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Update(ctx context.Context, id string, in any) (*T, error) {
	var out T
	if err := r.c.doJSON(ctx, http.MethodPut, itemPath(r.path, id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Patch(ctx context.Context, id, sub string, in any) (*T, error) {
	var out T
	if err := r.c.doJSON(ctx, http.MethodPatch, itemPath(r.path, id)+sub, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.doJSON(ctx, http.MethodDelete, itemPath(r.path, id), nil, nil, nil)
}

// UploadImage posts a multipart image to {path}/{id}/image.
func (r Resource[T]) UploadImage(ctx context.Context, id string, up Upload) (*T, error) {
	var out T
	if err := r.c.doMultipart(ctx, http.MethodPost, itemPath(r.path, id)+"/image", up, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
