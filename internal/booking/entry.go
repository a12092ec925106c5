package booking

import (
	"net/url"
)

// Entry is how a booking page visit resolves its query parameters.
type Entry struct {
	// Redirect is set when the visit belongs to the tiered booking surface.
	Redirect   string
	CategoryID string
}

// ParseEntry routes tierId visits to tieredPath and keeps categoryId as a
// preselection for the consultation flow.
func ParseEntry(q url.Values, tieredPath string) Entry {
	if tierID := q.Get("tierId"); tierID != "" {
		v := url.Values{}
		v.Set("tierId", tierID)
		if c := q.Get("categoryId"); c != "" {
			v.Set("categoryId", c)
		}
		return Entry{Redirect: tieredPath + "?" + v.Encode()}
	}
	return Entry{CategoryID: q.Get("categoryId")}
}
