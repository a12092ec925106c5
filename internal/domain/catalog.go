package domain

type CategoryType string

const (
	CategoryTiered      CategoryType = "tiered"
	CategoryContactOnly CategoryType = "contact_only"
)

type ServiceCategory struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	CategoryType CategoryType  `json:"category_type"`
	Image        string        `json:"image,omitempty"`
	IsActive     bool          `json:"is_active"`
	Tiers        []ServiceTier `json:"tiers,omitempty"`
	Services     []Service     `json:"services,omitempty"`
}

// Bookable reports whether the category can be booked through the
// consultation flow.
func (c *ServiceCategory) Bookable() bool {
	return c != nil && c.IsActive && c.CategoryType == CategoryContactOnly
}

type ServiceTier struct {
	ID          string   `json:"id"`
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Features    []string `json:"features,omitempty"`
	Image       string   `json:"image,omitempty"`
	IsActive    bool     `json:"is_active"`
}

type Service struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id,omitempty"`
	TierID      string  `json:"tier_id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
	Image       string  `json:"image,omitempty"`
	IsActive    bool    `json:"is_active"`
}

type Package struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Duration    string   `json:"duration,omitempty"`
	Features    []string `json:"features,omitempty"`
	IsActive    bool     `json:"is_active"`
}

// CategoryFilter narrows GET /service-categories.
type CategoryFilter struct {
	ActiveOnly   bool         `url:"active_only,omitempty"`
	CategoryType CategoryType `url:"category_type,omitempty"`
}
