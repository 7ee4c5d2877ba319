package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/timezone"
	"github.com/rs/zerolog"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender renders booking confirmations. Delivery is a structured log line.
type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Type != kafka.EventBookingCreated {
		return nil
	}
	msg, err := Confirmation(event)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("booking_id", event.BookingID).
		Msg("send email")
	return nil
}

// Confirmation builds the confirmation email, showing the start time in the
// zone the class was scheduled in.
func Confirmation(event kafka.BookingEvent) (Message, error) {
	if strings.TrimSpace(event.ClientEmail) == "" {
		return Message{}, fmt.Errorf("booking %s has no recipient", event.BookingID)
	}
	zone := event.ClassTimezone
	if zone == "" {
		zone = "UTC"
	}
	when, err := timezone.Display(event.ClassStartsAt, zone)
	if err != nil {
		when = event.ClassStartsAt.UTC().Format(timezone.DisplayLayout)
	}

	return Message{
		To:      event.ClientEmail,
		Subject: fmt.Sprintf("Booking confirmed: %s", event.ClassName),
		Body: fmt.Sprintf("Hi %s,\n\nyour spot in %s on %s is confirmed.\nBooking reference: %s\n",
			event.ClientName, event.ClassName, when, event.BookingID),
	}, nil
}
