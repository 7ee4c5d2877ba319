package kafka

import "time"

const (
	EventBookingCreated = "booking_created"
	EventClassCreated   = "class_created"
)

type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	ClassID       string    `json:"class_id"`
	ClassName     string    `json:"class_name"`
	ClassStartsAt time.Time `json:"class_starts_at"`
	ClassTimezone string    `json:"class_timezone"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	BookedAt      time.Time `json:"booked_at"`
}

type ClassEvent struct {
	Type       string    `json:"type"`
	ClassID    string    `json:"class_id"`
	Name       string    `json:"name"`
	Instructor string    `json:"instructor"`
	StartsAt   time.Time `json:"starts_at"`
	Timezone   string    `json:"timezone"`
	TotalSlots int       `json:"total_slots"`
}
