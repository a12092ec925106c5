package admin

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/apierr"
)

var ErrUnsupported = errors.New("admin: operation not supported by this screen")

// Resource is the type-erased face of a screen used by the HTTP layer.
type Resource interface {
	Load(ctx context.Context) error
	Loaded() bool
	SetSearch(q string)
	SetFilter(v string)
	View() any
	CreateJSON(ctx context.Context, raw json.RawMessage) (any, error)
	UpdateJSON(ctx context.Context, id string, raw json.RawMessage) (any, error)
	DeleteByID(ctx context.Context, id string) error
	CreateWithFile(ctx context.Context, up api.Upload) (any, error)
	AttachImage(ctx context.Context, id string, up api.Upload) (any, error)
}

// Typed binds a screen of T to the upstream calls that create it from C
// and update it from U.
type Typed[T, C, U any] struct {
	*Screen[T]

	create     func(ctx context.Context, in C) (*T, error)
	update     func(ctx context.Context, id string, in U) (*T, error)
	remove     func(ctx context.Context, id string) error
	createFile func(ctx context.Context, up api.Upload) (*T, error)
	image      func(ctx context.Context, id string, up api.Upload) (*T, error)
}

func (r *Typed[T, C, U]) View() any {
	return r.Visible()
}

func (r *Typed[T, C, U]) CreateJSON(ctx context.Context, raw json.RawMessage) (any, error) {
	if r.create == nil {
		return nil, ErrUnsupported
	}
	var in C
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	return r.Create(ctx, func(ctx context.Context) (*T, error) { return r.create(ctx, in) })
}

func (r *Typed[T, C, U]) UpdateJSON(ctx context.Context, id string, raw json.RawMessage) (any, error) {
	if r.update == nil {
		return nil, ErrUnsupported
	}
	var in U
	if err := decode(raw, &in); err != nil {
		return nil, err
	}
	return r.Update(ctx, id, func(ctx context.Context) (*T, error) { return r.update(ctx, id, in) })
}

func (r *Typed[T, C, U]) DeleteByID(ctx context.Context, id string) error {
	if r.remove == nil {
		return ErrUnsupported
	}
	return r.Delete(ctx, id, func(ctx context.Context) error { return r.remove(ctx, id) })
}

func (r *Typed[T, C, U]) CreateWithFile(ctx context.Context, up api.Upload) (any, error) {
	if r.createFile == nil {
		return nil, ErrUnsupported
	}
	return r.Create(ctx, func(ctx context.Context) (*T, error) { return r.createFile(ctx, up) })
}

func (r *Typed[T, C, U]) AttachImage(ctx context.Context, id string, up api.Upload) (any, error) {
	if r.image == nil {
		return nil, ErrUnsupported
	}
	return r.Update(ctx, id, func(ctx context.Context) (*T, error) { return r.image(ctx, id, up) })
}

func decode(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apierr.Validation(apierr.OpGeneric, map[string]string{"body": "Invalid request body"})
	}
	return nil
}
