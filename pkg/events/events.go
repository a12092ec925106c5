package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diagnosis/concierge/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("concierge-bff"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	msg := nats.NewMsg(subject)
	msg.Data = payload
	if requestID := logger.RequestID(ctx); requestID != "" {
		msg.Header.Set("X-Request-ID", requestID)
	}
	return n.conn.PublishMsg(msg)
}

func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

// NopBus logs events instead of publishing them; used when NATS is disabled.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, data interface{}) error {
	logger.DebugContext(ctx, "Event bus disabled, dropping event", "subject", subject)
	return nil
}

func (NopBus) Close() error { return nil }

const (
	BookingCreated   = "booking.created"
	ContactSubmitted = "contact.submitted"
)

type BookingCreatedEvent struct {
	BookingID         string    `json:"booking_id"`
	UserID            string    `json:"user_id"`
	UserEmail         string    `json:"user_email"`
	UserName          string    `json:"user_name"`
	CategoryID        string    `json:"category_id"`
	CategoryName      string    `json:"category_name"`
	BookingDate       time.Time `json:"booking_date"`
	ContactPreference string    `json:"contact_preference"`
	SpecialRequests   string    `json:"special_requests,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type ContactSubmittedEvent struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}
