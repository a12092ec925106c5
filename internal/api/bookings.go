package api

import (
	"context"
	"net/http"

	"github.com/diagnosis/concierge/internal/domain"
)

func (c *Client) bookings() Resource[domain.Booking] {
	return NewResource[domain.Booking](c, "/bookings")
}

func (c *Client) subscriptions() Resource[domain.Subscription] {
	return NewResource[domain.Subscription](c, "/subscriptions")
}

func (c *Client) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	return c.bookings().List(ctx, f)
}

func (c *Client) ListMyBookings(ctx context.Context) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return c.bookings().Get(ctx, id)
}

// CreateBooking submits a booking. A non-empty idempotencyKey is sent as the
// Idempotency-Key header so retries of the same draft are deduplicated.
func (c *Client) CreateBooking(ctx context.Context, in domain.BookingCreate, idempotencyKey string) (*domain.Booking, error) {
	return c.bookings().Create(ctx, in, withIdempotencyKey(idempotencyKey))
}

func (c *Client) UpdateBooking(ctx context.Context, id string, in domain.BookingUpdate) (*domain.Booking, error) {
	return c.bookings().Update(ctx, id, in)
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	return c.bookings().Patch(ctx, id, "/status", map[string]domain.BookingStatus{"status": status})
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.bookings().Delete(ctx, id)
}

func (c *Client) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	return c.subscriptions().List(ctx, nil)
}

func (c *Client) ListMySubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var out []domain.Subscription
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSubscription(ctx context.Context, in domain.Subscription) (*domain.Subscription, error) {
	return c.subscriptions().Create(ctx, in)
}

func (c *Client) UpdateSubscription(ctx context.Context, id string, in domain.Subscription) (*domain.Subscription, error) {
	return c.subscriptions().Update(ctx, id, in)
}

func (c *Client) CancelSubscription(ctx context.Context, id string) error {
	return c.subscriptions().Delete(ctx, id)
}
