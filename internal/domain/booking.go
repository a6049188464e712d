package domain

import "strings"

type Step string

const (
	StepSearch       Step = "search"
	StepGuestDetails Step = "guest-details"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// GuestDetails is the lead guest for one booking attempt. Phone is optional.
type GuestDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// Complete reports whether the mandatory fields are filled in.
func (g GuestDetails) Complete() bool {
	return strings.TrimSpace(g.FirstName) != "" &&
		strings.TrimSpace(g.LastName) != "" &&
		strings.TrimSpace(g.Email) != ""
}

func (g GuestDetails) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

// BookingResult is the server-returned booking record. It is read-only and
// marks the terminal state of one flow instance.
type BookingResult struct {
	BookingID        int     `json:"bookingId"`
	BookingReference string  `json:"bookingReference"`
	Status           string  `json:"status"`
	GuestName        string  `json:"guestName"`
	CheckIn          string  `json:"checkIn"`
	CheckOut         string  `json:"checkOut"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	PaymentAmount    float64 `json:"paymentAmount,omitempty"`
}
