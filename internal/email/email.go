package email

import (
	"context"
	"fmt"

	"github.com/ammaritto/short-stay/internal/format"
	"github.com/ammaritto/short-stay/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

// Send turns a booking event into the matching notification: a confirmation
// to the guest, or a support alert quoting the processor reference for a
// captured-but-unbooked payment.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	switch event.Type {
	case kafka.EventBookingConfirmed:
		fmt.Printf("send confirmation to %s: booking %s, %s paid\n",
			event.Email, event.BookingReference, format.Currency(event.Amount, event.Currency))
	case kafka.EventPaymentPartialFailure:
		fmt.Printf("alert support: payment %s captured for %s (%s) but booking was not created\n",
			event.PaymentReference, event.GuestName, format.Currency(event.Amount, event.Currency))
	default:
		fmt.Printf("ignore event type %s for session %s\n", event.Type, event.SessionID)
	}
	return nil
}
