package api

import (
	"context"

	"github.com/diagnosis/concierge/internal/domain"
)

// TierFilter narrows tier listings to one category.
type TierFilter struct {
	CategoryID string `url:"category_id,omitempty"`
}

func (c *Client) services() Resource[domain.Service] {
	return NewResource[domain.Service](c, "/services")
}

func (c *Client) categories() Resource[domain.ServiceCategory] {
	return NewResource[domain.ServiceCategory](c, "/service-categories")
}

func (c *Client) tiers() Resource[domain.ServiceTier] {
	return NewResource[domain.ServiceTier](c, "/service-tiers")
}

func (c *Client) packages() Resource[domain.Package] {
	return NewResource[domain.Package](c, "/packages")
}

// Services

func (c *Client) ListServices(ctx context.Context) ([]domain.Service, error) {
	return c.services().List(ctx, nil)
}

func (c *Client) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return c.services().Get(ctx, id)
}

func (c *Client) CreateService(ctx context.Context, in domain.Service) (*domain.Service, error) {
	return c.services().Create(ctx, in)
}

func (c *Client) UpdateService(ctx context.Context, id string, in domain.Service) (*domain.Service, error) {
	return c.services().Update(ctx, id, in)
}

func (c *Client) DeleteService(ctx context.Context, id string) error {
	return c.services().Delete(ctx, id)
}

func (c *Client) UploadServiceImage(ctx context.Context, id string, up Upload) (*domain.Service, error) {
	return c.services().UploadImage(ctx, id, up)
}

// Service categories

func (c *Client) ListServiceCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.ServiceCategory, error) {
	return c.categories().List(ctx, f)
}

func (c *Client) GetServiceCategory(ctx context.Context, id string) (*domain.ServiceCategory, error) {
	return c.categories().Get(ctx, id)
}

func (c *Client) CreateServiceCategory(ctx context.Context, in domain.ServiceCategory) (*domain.ServiceCategory, error) {
	return c.categories().Create(ctx, in)
}

func (c *Client) UpdateServiceCategory(ctx context.Context, id string, in domain.ServiceCategory) (*domain.ServiceCategory, error) {
	return c.categories().Update(ctx, id, in)
}

func (c *Client) DeleteServiceCategory(ctx context.Context, id string) error {
	return c.categories().Delete(ctx, id)
}

func (c *Client) UploadCategoryImage(ctx context.Context, id string, up Upload) (*domain.ServiceCategory, error) {
	return c.categories().UploadImage(ctx, id, up)
}

// Service tiers

func (c *Client) ListServiceTiers(ctx context.Context, f TierFilter) ([]domain.ServiceTier, error) {
	return c.tiers().List(ctx, f)
}

func (c *Client) GetServiceTier(ctx context.Context, id string) (*domain.ServiceTier, error) {
	return c.tiers().Get(ctx, id)
}

func (c *Client) CreateServiceTier(ctx context.Context, in domain.ServiceTier) (*domain.ServiceTier, error) {
	return c.tiers().Create(ctx, in)
}

func (c *Client) UpdateServiceTier(ctx context.Context, id string, in domain.ServiceTier) (*domain.ServiceTier, error) {
	return c.tiers().Update(ctx, id, in)
}

func (c *Client) DeleteServiceTier(ctx context.Context, id string) error {
	return c.tiers().Delete(ctx, id)
}

func (c *Client) UploadTierImage(ctx context.Context, id string, up Upload) (*domain.ServiceTier, error) {
	return c.tiers().UploadImage(ctx, id, up)
}

// Packages

func (c *Client) ListPackages(ctx context.Context) ([]domain.Package, error) {
	return c.packages().List(ctx, nil)
}

func (c *Client) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	return c.packages().Get(ctx, id)
}

func (c *Client) CreatePackage(ctx context.Context, in domain.Package) (*domain.Package, error) {
	return c.packages().Create(ctx, in)
}

func (c *Client) UpdatePackage(ctx context.Context, id string, in domain.Package) (*domain.Package, error) {
	return c.packages().Update(ctx, id, in)
}

func (c *Client) DeletePackage(ctx context.Context, id string) error {
	return c.packages().Delete(ctx, id)
}
