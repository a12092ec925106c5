package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

const (
	BookingTypeConsultation = "consultation"

	ContactEmail    = "email"
	ContactPhone    = "phone"
	ContactWhatsApp = "whatsapp"
)

type Booking struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	ServiceID         string        `json:"serviceId"`
	TierID            *string       `json:"tierId"`
	BookingDate       time.Time     `json:"bookingDate"`
	Status            BookingStatus `json:"status"`
	SpecialRequests   string        `json:"specialRequests,omitempty"`
	BookingType       string        `json:"booking_type,omitempty"`
	ContactPreference string        `json:"contact_preference,omitempty"`
	PaymentRequired   bool          `json:"payment_required"`
	CreatedAt         time.Time     `json:"createdAt,omitempty"`
	User              *User         `json:"user,omitempty"`
	Service           *Service      `json:"service,omitempty"`
}

// BookingCreate is the payload for POST /bookings.
type BookingCreate struct {
	UserID            string        `json:"userId"`
	ServiceID         string        `json:"serviceId"`
	TierID            *string       `json:"tierId"`
	BookingDate       time.Time     `json:"bookingDate"`
	Status            BookingStatus `json:"status"`
	SpecialRequests   string        `json:"specialRequests"`
	BookingType       string        `json:"booking_type"`
	ContactPreference string        `json:"contact_preference"`
	PaymentRequired   bool          `json:"payment_required"`
}

type BookingUpdate struct {
	BookingDate     *time.Time     `json:"bookingDate,omitempty"`
	Status          *BookingStatus `json:"status,omitempty"`
	SpecialRequests *string        `json:"specialRequests,omitempty"`
}

type BookingFilter struct {
	Status BookingStatus `url:"status,omitempty"`
	UserID string        `url:"user_id,omitempty"`
	Skip   int           `url:"skip,omitempty"`
	Limit  int           `url:"limit,omitempty"`
}

type Subscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	PackageID string     `json:"packageId"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	AutoRenew bool       `json:"autoRenew"`
}
