// Package notify fans booking and contact events out to the serverless
// webhook routes and the event bus. Delivery is best effort: failures are
// logged and dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/pkg/config"
	"github.com/diagnosis/concierge/pkg/events"
	"github.com/diagnosis/concierge/pkg/logger"
	"golang.org/x/sync/errgroup"
)

type Dispatcher struct {
	client  *http.Client
	cfg     config.WebhookConfig
	bus     events.Publisher
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(cfg config.WebhookConfig, bus events.Publisher) *Dispatcher {
	if bus == nil {
		bus = events.NopBus{}
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		bus:     bus,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

type delivery struct {
	path    string
	payload any
}

// BookingCreated notifies the spreadsheet mirror, Slack, WhatsApp and the
// customer's email in the background.
func (d *Dispatcher) BookingCreated(ctx context.Context, b domain.Booking, user domain.User, category domain.ServiceCategory) {
	evt := events.BookingCreatedEvent{
		BookingID:         b.ID,
		UserID:            user.ID,
		UserEmail:         user.Email,
		UserName:          user.FullName(),
		CategoryID:        category.ID,
		CategoryName:      category.Name,
		BookingDate:       b.BookingDate,
		ContactPreference: b.ContactPreference,
		SpecialRequests:   b.SpecialRequests,
		CreatedAt:         d.now(),
	}

	when := b.BookingDate.Format("Mon Jan 2, 2006 at 03:04 PM")
	summary := fmt.Sprintf("New consultation booking from %s for %s on %s", displayName(user), category.Name, when)

	d.dispatch(ctx, "booking", events.BookingCreated, evt, []delivery{
		{d.cfg.AirtablePath, airtableRecord{Table: "Bookings", Fields: evt}},
		{d.cfg.SlackPath, slackMessage{Text: summary}},
		{d.cfg.WhatsAppPath, whatsAppMessage{Type: "booking", Message: summary}},
		{d.cfg.EmailPath, emailMessage{
			To:      user.Email,
			Type:    "booking_confirmation",
			Subject: "We received your booking request",
			Data:    evt,
		}},
	})
}

// ContactSubmitted notifies Slack and the team inbox.
func (d *Dispatcher) ContactSubmitted(ctx context.Context, msg domain.ContactMessage) {
	evt := events.ContactSubmittedEvent{
		Name:        msg.Name,
		Email:       msg.Email,
		Phone:       msg.Phone,
		Subject:     msg.Subject,
		Message:     msg.Message,
		SubmittedAt: d.now(),
	}

	d.dispatch(ctx, "contact", events.ContactSubmitted, evt, []delivery{
		{d.cfg.SlackPath, slackMessage{Text: fmt.Sprintf("New contact message from %s <%s>: %s", msg.Name, msg.Email, msg.Subject)}},
		{d.cfg.EmailPath, emailMessage{
			To:      msg.Email,
			Type:    "contact_received",
			Subject: "Thanks for getting in touch",
			Data:    evt,
		}},
	})
}

// Wait blocks until every background delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// dispatch detaches from the caller so a finished request does not cancel
// the deliveries, and bounds them with the webhook timeout.
func (d *Dispatcher) dispatch(ctx context.Context, kind, subject string, evt any, deliveries []delivery) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		var g errgroup.Group
		for _, dl := range deliveries {
			g.Go(func() error {
				if err := d.post(ctx, dl.path, dl.payload); err != nil {
					logger.WarnContext(ctx, "Webhook delivery failed", "kind", kind, "path", dl.path, "error", err)
				}
				return nil
			})
		}
		g.Go(func() error {
			if err := d.bus.Publish(ctx, subject, evt); err != nil {
				logger.WarnContext(ctx, "Event publish failed", "subject", subject, "error", err)
			}
			return nil
		})
		_ = g.Wait()

		logger.DebugContext(ctx, "Notifications dispatched", "kind", kind, "webhooks", len(deliveries))
	}()
}

func (d *Dispatcher) post(ctx context.Context, path string, payload any) error {
	if path == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID := logger.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

type airtableRecord struct {
	Table  string `json:"table"`
	Fields any    `json:"fields"`
}

type slackMessage struct {
	Text string `json:"text"`
}

type whatsAppMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type emailMessage struct {
	To      string `json:"to"`
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Data    any    `json:"data"`
}

func displayName(u domain.User) string {
	if name := strings.TrimSpace(u.FullName()); name != "" {
		return name
	}
	return u.Email
}
