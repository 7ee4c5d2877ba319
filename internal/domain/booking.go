package domain

import "time"

type Booking struct {
	ID          string
	ClassID     string
	ClientName  string
	ClientEmail string
	BookedAt    time.Time
}

// BookingDetails is a booking joined with the class it references.
type BookingDetails struct {
	Booking
	ClassName     string
	ClassStartsAt time.Time
	ClassTimezone string
}

type BookingView struct {
	ID            string    `json:"id"`
	ClassID       string    `json:"class_id"`
	ClassName     string    `json:"class_name"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	BookingTime   time.Time `json:"booking_time"`
	ClassDatetime time.Time `json:"class_datetime"`
}

func (d BookingDetails) View() BookingView {
	return BookingView{
		ID:            d.ID,
		ClassID:       d.ClassID,
		ClassName:     d.ClassName,
		ClientName:    d.ClientName,
		ClientEmail:   d.ClientEmail,
		BookingTime:   d.BookedAt,
		ClassDatetime: d.ClassStartsAt,
	}
}
