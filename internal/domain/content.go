package domain

import "time"

type Blog struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Author      string     `json:"author,omitempty"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

type BlogFilter struct {
	Published *bool  `url:"published,omitempty"`
	Tag       string `url:"tag,omitempty"`
	Skip      int    `url:"skip,omitempty"`
	Limit     int    `url:"limit,omitempty"`
}

type EmergencyAlert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Location  string    `json:"location,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type Document struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	TotalBookings       int `json:"total_bookings"`
	PendingBookings     int `json:"pending_bookings"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	OpenAlerts          int `json:"open_alerts"`
}

type GalleryImage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Caption  string `json:"caption,omitempty"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url"`
}

type CRMClient struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Status  string `json:"status"`
	Notes   string `json:"notes,omitempty"`
}

// ContentBlock is an editable piece of site copy keyed by page section.
type ContentBlock struct {
	ID      string `json:"id"`
	Page    string `json:"page"`
	Section string `json:"section"`
	Title   string `json:"title,omitempty"`
	Body    string `json:"body"`
}
