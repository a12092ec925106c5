package booking

import (
	"time"

	"github.com/diagnosis/concierge/internal/domain"
)

const dateLayout = "2006-01-02"

// State is the renderable view of a flow. Passwords never leave the flow.
type State struct {
	ID          string                   `json:"id"`
	Step        Step                     `json:"step"`
	Mode        AuthMode                 `json:"authMode"`
	Credentials CredentialsView          `json:"credentials"`
	Draft       DraftView                `json:"draft"`
	Errors      map[string]string        `json:"errors"`
	AuthError   string                   `json:"authError,omitempty"`
	Categories  []domain.ServiceCategory `json:"categories"`
	TimeSlots   []string                 `json:"timeSlots"`
	Submitting  bool                     `json:"submitting"`
	Done        bool                     `json:"done"`
	BookingID   string                   `json:"bookingId,omitempty"`
}

type CredentialsView struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type DraftView struct {
	CategoryID        string `json:"categoryId"`
	Date              string `json:"date,omitempty"`
	Time              string `json:"time"`
	SpecialRequests   string `json:"specialRequests"`
	ContactPreference string `json:"contactPreference"`
}

func (f *Flow) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := DraftView{
		CategoryID:        f.draft.CategoryID,
		Time:              f.draft.Time,
		SpecialRequests:   f.draft.SpecialRequests,
		ContactPreference: f.draft.ContactPreference,
	}
	if f.draft.Date != nil {
		d.Date = f.draft.Date.Format(dateLayout)
	}

	cats := make([]domain.ServiceCategory, len(f.categories))
	copy(cats, f.categories)

	return State{
		ID:   f.id,
		Step: f.step,
		Mode: f.mode,
		Credentials: CredentialsView{
			FirstName: f.creds.FirstName,
			LastName:  f.creds.LastName,
			Email:     f.creds.Email,
			Phone:     f.creds.Phone,
		},
		Draft:      d,
		Errors:     copyErrors(f.errors),
		AuthError:  f.authError,
		Categories: cats,
		TimeSlots:  TimeSlots,
		Submitting: f.submitting,
		Done:       f.done,
		BookingID:  f.bookingID,
	}
}

// ParseDate reads a yyyy-mm-dd calendar date as sent by date pickers.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, loc)
}
