package api

import (
	"context"
	"io"
	"net/http"

	"github.com/diagnosis/concierge/internal/domain"
)

func (c *Client) blogs() Resource[domain.Blog] {
	return NewResource[domain.Blog](c, "/blogs")
}

func (c *Client) alerts() Resource[domain.EmergencyAlert] {
	return NewResource[domain.EmergencyAlert](c, "/emergency-alerts")
}

func (c *Client) documents() Resource[domain.Document] {
	return NewResource[domain.Document](c, "/documents")
}

func (c *Client) gallery() Resource[domain.GalleryImage] {
	return NewResource[domain.GalleryImage](c, "/gallery")
}

func (c *Client) crmClients() Resource[domain.CRMClient] {
	return NewResource[domain.CRMClient](c, "/crm/clients")
}

func (c *Client) contentBlocks() Resource[domain.ContentBlock] {
	return NewResource[domain.ContentBlock](c, "/content")
}

// Blogs

func (c *Client) ListBlogs(ctx context.Context, f domain.BlogFilter) ([]domain.Blog, error) {
	return c.blogs().List(ctx, f)
}

// GetBlog accepts either a slug or an id; the upstream resolves both.
func (c *Client) GetBlog(ctx context.Context, slug string) (*domain.Blog, error) {
	return c.blogs().Get(ctx, slug)
}

func (c *Client) CreateBlog(ctx context.Context, in domain.Blog) (*domain.Blog, error) {
	return c.blogs().Create(ctx, in)
}

func (c *Client) UpdateBlog(ctx context.Context, id string, in domain.Blog) (*domain.Blog, error) {
	return c.blogs().Update(ctx, id, in)
}

func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	return c.blogs().Delete(ctx, id)
}

// Emergency alerts

func (c *Client) ListEmergencyAlerts(ctx context.Context) ([]domain.EmergencyAlert, error) {
	return c.alerts().List(ctx, nil)
}

func (c *Client) CreateEmergencyAlert(ctx context.Context, in domain.EmergencyAlert) (*domain.EmergencyAlert, error) {
	return c.alerts().Create(ctx, in)
}

func (c *Client) ResolveEmergencyAlert(ctx context.Context, id string) (*domain.EmergencyAlert, error) {
	return c.alerts().Patch(ctx, id, "/resolve", nil)
}

// Documents

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return c.documents().List(ctx, nil)
}

func (c *Client) UploadDocument(ctx context.Context, filename string, body io.Reader, docType string) (*domain.Document, error) {
	var out domain.Document
	up := Upload{Field: "file", Filename: filename, Body: body}
	if docType != "" {
		up.Fields = map[string]string{"type": docType}
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/documents", up, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.documents().Delete(ctx, id)
}

// Admin and contact

func (c *Client) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	var out domain.AdminStats
	if err := c.doJSON(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitContact(ctx context.Context, in domain.ContactMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/contact", nil, in, nil)
}

// Gallery

func (c *Client) ListGalleryImages(ctx context.Context) ([]domain.GalleryImage, error) {
	return c.gallery().List(ctx, nil)
}

// CreateGalleryImage uploads the image file together with its metadata.
func (c *Client) CreateGalleryImage(ctx context.Context, meta domain.GalleryImage, filename string, body io.Reader) (*domain.GalleryImage, error) {
	var out domain.GalleryImage
	up := Upload{
		Field:    "file",
		Filename: filename,
		Body:     body,
		Fields: map[string]string{
			"title":    meta.Title,
			"caption":  meta.Caption,
			"category": meta.Category,
		},
	}
	if err := c.doMultipart(ctx, http.MethodPost, "/gallery", up, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateGalleryImage(ctx context.Context, id string, in domain.GalleryImage) (*domain.GalleryImage, error) {
	return c.gallery().Update(ctx, id, in)
}

func (c *Client) DeleteGalleryImage(ctx context.Context, id string) error {
	return c.gallery().Delete(ctx, id)
}

// CRM clients

func (c *Client) ListCRMClients(ctx context.Context) ([]domain.CRMClient, error) {
	return c.crmClients().List(ctx, nil)
}

func (c *Client) CreateCRMClient(ctx context.Context, in domain.CRMClient) (*domain.CRMClient, error) {
	return c.crmClients().Create(ctx, in)
}

func (c *Client) UpdateCRMClient(ctx context.Context, id string, in domain.CRMClient) (*domain.CRMClient, error) {
	return c.crmClients().Update(ctx, id, in)
}

func (c *Client) DeleteCRMClient(ctx context.Context, id string) error {
	return c.crmClients().Delete(ctx, id)
}

// Site content

func (c *Client) ListContentBlocks(ctx context.Context) ([]domain.ContentBlock, error) {
	return c.contentBlocks().List(ctx, nil)
}

func (c *Client) CreateContentBlock(ctx context.Context, in domain.ContentBlock) (*domain.ContentBlock, error) {
	return c.contentBlocks().Create(ctx, in)
}

func (c *Client) UpdateContentBlock(ctx context.Context, id string, in domain.ContentBlock) (*domain.ContentBlock, error) {
	return c.contentBlocks().Update(ctx, id, in)
}

func (c *Client) DeleteContentBlock(ctx context.Context, id string) error {
	return c.contentBlocks().Delete(ctx, id)
}
