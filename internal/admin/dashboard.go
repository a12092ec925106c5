package admin

import (
	"context"
	"sync"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const recentBookings = 5

// DashboardAPI is what the overview page reads.
type DashboardAPI interface {
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
	ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	ListEmergencyAlerts(ctx context.Context) ([]domain.EmergencyAlert, error)
}

type DashboardView struct {
	Stats  domain.AdminStats       `json:"stats"`
	Recent []domain.Booking        `json:"recent_bookings"`
	Alerts []domain.EmergencyAlert `json:"alerts"`
}

// Dashboard holds the aggregate counts shown above the screens.
type Dashboard struct {
	mu   sync.RWMutex
	view DashboardView

	api DashboardAPI
}

func NewDashboard(a DashboardAPI) *Dashboard {
	return &Dashboard{api: a}
}

// Load fetches stats, recent bookings and open alerts concurrently.
func (d *Dashboard) Load(ctx context.Context) error {
	var (
		stats  *domain.AdminStats
		recent []domain.Booking
		alerts []domain.EmergencyAlert
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = d.api.AdminStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = d.api.ListBookings(gctx, domain.BookingFilter{Limit: recentBookings})
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = d.api.ListEmergencyAlerts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "Failed to load admin dashboard", "error", err)
		return apierr.Classify(apierr.OpGeneric, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.view = DashboardView{Stats: *stats, Recent: recent, Alerts: alerts}
	return nil
}

// RefreshStats re-reads only the aggregate counts. Failures keep the old
// counts.
func (d *Dashboard) RefreshStats(ctx context.Context) {
	stats, err := d.api.AdminStats(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Failed to refresh admin stats", "error", err)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.Stats = *stats
}

func (d *Dashboard) View() DashboardView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}
