package admin

import (
	"context"
	"sort"
	"strings"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/toast"
)

// Workspace is the set of screens one admin session works with.
type Workspace struct {
	Dashboard *Dashboard
	resources map[string]Resource
}

func (w *Workspace) Resource(name string) (Resource, bool) {
	r, ok := w.resources[name]
	return r, ok
}

func (w *Workspace) Names() []string {
	names := make([]string, 0, len(w.resources))
	for n := range w.resources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewWorkspace wires every management screen to client. Booking changes
// refresh the dashboard counts.
func NewWorkspace(client *api.Client, toasts toast.Notifier) *Workspace {
	dash := NewDashboard(client)
	c := client

	bookings := &Typed[domain.Booking, domain.BookingCreate, domain.BookingUpdate]{
		Screen: NewScreen(Spec[domain.Booking]{
			Noun: "Booking",
			ID:   func(b domain.Booking) string { return b.ID },
			Fields: func(b domain.Booking) []string {
				f := []string{b.ID, b.SpecialRequests}
				if b.User != nil {
					f = append(f, b.User.Email, b.User.FullName())
				}
				if b.Service != nil {
					f = append(f, b.Service.Name)
				}
				return f
			},
			Facet: func(b domain.Booking) string { return string(b.Status) },
		}, func(ctx context.Context) ([]domain.Booking, error) {
			return c.ListBookings(ctx, domain.BookingFilter{})
		}, toasts),
		create: func(ctx context.Context, in domain.BookingCreate) (*domain.Booking, error) {
			return c.CreateBooking(ctx, in, "")
		},
		update: c.UpdateBooking,
		remove: c.DeleteBooking,
	}
	bookings.OnChange(dash.RefreshStats)

	users := &Typed[domain.User, domain.RegisterRequest, domain.UserUpdate]{
		Screen: NewScreen(Spec[domain.User]{
			Noun:   "User",
			ID:     func(u domain.User) string { return u.ID },
			Fields: func(u domain.User) []string { return []string{u.Email, u.FirstName, u.LastName, u.Phone} },
			Facet:  func(u domain.User) string { return u.Role },
		}, c.ListUsers, toasts),
		create: c.CreateUser,
		update: c.UpdateUser,
		remove: c.DeleteUser,
	}

	packages := &Typed[domain.Package, domain.Package, domain.Package]{
		Screen: NewScreen(Spec[domain.Package]{
			Noun:   "Package",
			ID:     func(p domain.Package) string { return p.ID },
			Fields: func(p domain.Package) []string { return []string{p.Name, p.Description, p.Duration} },
			Facet:  func(p domain.Package) string { return activeLabel(p.IsActive) },
		}, c.ListPackages, toasts),
		create: c.CreatePackage,
		update: c.UpdatePackage,
		remove: c.DeletePackage,
	}

	categories := &Typed[domain.ServiceCategory, domain.ServiceCategory, domain.ServiceCategory]{
		Screen: NewScreen(Spec[domain.ServiceCategory]{
			Noun:   "Category",
			ID:     func(sc domain.ServiceCategory) string { return sc.ID },
			Fields: func(sc domain.ServiceCategory) []string { return []string{sc.Name, sc.Description} },
			Facet:  func(sc domain.ServiceCategory) string { return string(sc.CategoryType) },
		}, func(ctx context.Context) ([]domain.ServiceCategory, error) {
			return c.ListServiceCategories(ctx, domain.CategoryFilter{})
		}, toasts),
		create: c.CreateServiceCategory,
		update: c.UpdateServiceCategory,
		remove: c.DeleteServiceCategory,
		image:  c.UploadCategoryImage,
	}

	tiers := &Typed[domain.ServiceTier, domain.ServiceTier, domain.ServiceTier]{
		Screen: NewScreen(Spec[domain.ServiceTier]{
			Noun:   "Tier",
			ID:     func(t domain.ServiceTier) string { return t.ID },
			Fields: func(t domain.ServiceTier) []string { return []string{t.Name, t.Description} },
			Facet:  func(t domain.ServiceTier) string { return t.CategoryID },
		}, func(ctx context.Context) ([]domain.ServiceTier, error) {
			return c.ListServiceTiers(ctx, api.TierFilter{})
		}, toasts),
		create: c.CreateServiceTier,
		update: c.UpdateServiceTier,
		remove: c.DeleteServiceTier,
		image:  c.UploadTierImage,
	}

	services := &Typed[domain.Service, domain.Service, domain.Service]{
		Screen: NewScreen(Spec[domain.Service]{
			Noun:   "Service",
			ID:     func(s domain.Service) string { return s.ID },
			Fields: func(s domain.Service) []string { return []string{s.Name, s.Description} },
			Facet:  func(s domain.Service) string { return s.CategoryID },
		}, c.ListServices, toasts),
		create: c.CreateService,
		update: c.UpdateService,
		remove: c.DeleteService,
		image:  c.UploadServiceImage,
	}

	blogs := &Typed[domain.Blog, domain.Blog, domain.Blog]{
		Screen: NewScreen(Spec[domain.Blog]{
			Noun:   "Blog post",
			ID:     func(b domain.Blog) string { return b.ID },
			Fields: func(b domain.Blog) []string { return []string{b.Title, b.Slug, b.Author, strings.Join(b.Tags, " ")} },
			Facet: func(b domain.Blog) string {
				if b.Published {
					return "published"
				}
				return "draft"
			},
		}, func(ctx context.Context) ([]domain.Blog, error) {
			return c.ListBlogs(ctx, domain.BlogFilter{})
		}, toasts),
		create: c.CreateBlog,
		update: c.UpdateBlog,
		remove: c.DeleteBlog,
	}

	gallery := &Typed[domain.GalleryImage, domain.GalleryImage, domain.GalleryImage]{
		Screen: NewScreen(Spec[domain.GalleryImage]{
			Noun:   "Image",
			ID:     func(g domain.GalleryImage) string { return g.ID },
			Fields: func(g domain.GalleryImage) []string { return []string{g.Title, g.Caption} },
			Facet:  func(g domain.GalleryImage) string { return g.Category },
		}, c.ListGalleryImages, toasts),
		update: c.UpdateGalleryImage,
		remove: c.DeleteGalleryImage,
		createFile: func(ctx context.Context, up api.Upload) (*domain.GalleryImage, error) {
			meta := domain.GalleryImage{
				Title:    up.Fields["title"],
				Caption:  up.Fields["caption"],
				Category: up.Fields["category"],
			}
			return c.CreateGalleryImage(ctx, meta, up.Filename, up.Body)
		},
	}

	crm := &Typed[domain.CRMClient, domain.CRMClient, domain.CRMClient]{
		Screen: NewScreen(Spec[domain.CRMClient]{
			Noun:   "Client",
			ID:     func(cl domain.CRMClient) string { return cl.ID },
			Fields: func(cl domain.CRMClient) []string { return []string{cl.Name, cl.Email, cl.Company, cl.Phone} },
			Facet:  func(cl domain.CRMClient) string { return cl.Status },
		}, c.ListCRMClients, toasts),
		create: c.CreateCRMClient,
		update: c.UpdateCRMClient,
		remove: c.DeleteCRMClient,
	}

	blocks := &Typed[domain.ContentBlock, domain.ContentBlock, domain.ContentBlock]{
		Screen: NewScreen(Spec[domain.ContentBlock]{
			Noun:   "Content",
			ID:     func(b domain.ContentBlock) string { return b.ID },
			Fields: func(b domain.ContentBlock) []string { return []string{b.Page, b.Section, b.Title} },
			Facet:  func(b domain.ContentBlock) string { return b.Page },
		}, c.ListContentBlocks, toasts),
		create: c.CreateContentBlock,
		update: c.UpdateContentBlock,
		remove: c.DeleteContentBlock,
	}

	return &Workspace{
		Dashboard: dash,
		resources: map[string]Resource{
			"bookings":   bookings,
			"users":      users,
			"packages":   packages,
			"categories": categories,
			"tiers":      tiers,
			"services":   services,
			"blogs":      blogs,
			"gallery":    gallery,
			"crm":        crm,
			"content":    blocks,
		},
	}
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
