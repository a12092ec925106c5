package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/content"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/utils"
)

// ContactNotifier receives accepted contact messages. Implementations must
// not block.
type ContactNotifier interface {
	ContactSubmitted(ctx context.Context, msg domain.ContactMessage)
}

// PublicHandler serves the catalog, blog and contact form.
type PublicHandler struct {
	Blogs    *content.Renderer
	Notifier ContactNotifier
}

func NewPublicHandler(blogs *content.Renderer, notifier ContactNotifier) *PublicHandler {
	return &PublicHandler{Blogs: blogs, Notifier: notifier}
}

func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/categories", h.categories)
	r.Get("/tiers", h.tiers)
	r.Get("/packages", h.packages)
	r.Get("/blogs", h.blogs)
	r.Get("/blogs/{slug}", h.blog)
	r.Post("/contact", h.contact)
	return r
}

func (h *PublicHandler) client(w http.ResponseWriter, r *http.Request) (*api.Client, bool) {
	s, ok := currentSession(w, r)
	if !ok {
		return nil, false
	}
	return s.Store.API(), true
}

func (h *PublicHandler) categories(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	f := domain.CategoryFilter{
		ActiveOnly:   true,
		CategoryType: domain.CategoryType(r.URL.Query().Get("type")),
	}
	cats, err := c.ListServiceCategories(r.Context(), f)
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, cats)
}

func (h *PublicHandler) tiers(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	tiers, err := c.ListServiceTiers(r.Context(), api.TierFilter{CategoryID: r.URL.Query().Get("categoryId")})
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, tiers)
}

func (h *PublicHandler) packages(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	pkgs, err := c.ListPackages(r.Context())
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	active := pkgs[:0]
	for _, p := range pkgs {
		if p.IsActive {
			active = append(active, p)
		}
	}
	respond(w, r, http.StatusOK, active)
}

func (h *PublicHandler) blogs(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	published := true
	blogs, err := c.ListBlogs(r.Context(), domain.BlogFilter{
		Published: &published,
		Tag:       r.URL.Query().Get("tag"),
	})
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, h.Blogs.Summaries(blogs))
}

func (h *PublicHandler) blog(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	b, err := c.GetBlog(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	if !b.Published {
		response.NotFound(w, "blog not found")
		return
	}
	post, err := h.Blogs.Render(*b)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, post)
}

func (h *PublicHandler) contact(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	var in domain.ContactMessage
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Name = utils.NormalizeString(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = utils.NormalizePhone(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	errs := map[string]string{}
	if in.Name == "" {
		errs["name"] = "Name is required"
	}
	if in.Email == "" {
		errs["email"] = "Email is required"
	} else if !utils.IsValidEmail(in.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if in.Message == "" {
		errs["message"] = "Message is required"
	}
	if len(errs) > 0 {
		fail(w, r, apierr.Validation(apierr.OpGeneric, errs))
		return
	}

	if err := s.Store.API().SubmitContact(r.Context(), in); err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		s.Toasts.Error(apierr.Message(e))
		fail(w, r, e)
		return
	}
	if h.Notifier != nil {
		h.Notifier.ContactSubmitted(r.Context(), in)
	}
	s.Toasts.Success("Message sent! We'll get back to you soon.")
	respond(w, r, http.StatusAccepted, nil)
}
