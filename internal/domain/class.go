package domain

import "time"

type Class struct {
	ID         string
	Name       string
	Instructor string
	StartsAt   time.Time
	Timezone   string
	TotalSlots int
	CreatedAt  time.Time
}

// ClassAvailability is a class together with the number of bookings held against it.
type ClassAvailability struct {
	Class
	BookedSlots int
}

func (c ClassAvailability) AvailableSlots() int {
	if left := c.TotalSlots - c.BookedSlots; left > 0 {
		return left
	}
	return 0
}

// StartedAt reports whether the class has begun at the given instant.
func (c Class) StartedAt(now time.Time) bool {
	return !c.StartsAt.After(now)
}

type ClassView struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Instructor       string    `json:"instructor"`
	DatetimeUTC      time.Time `json:"datetime_utc"`
	DatetimeLocal    string    `json:"datetime_local"`
	Timezone         string    `json:"timezone"`
	ZoneAbbreviation string    `json:"zone_abbreviation"`
	OriginTimezone   string    `json:"origin_timezone"`
	TotalSlots       int       `json:"total_slots"`
	AvailableSlots   int       `json:"available_slots"`
	BookedSlots      int       `json:"booked_slots"`
}
