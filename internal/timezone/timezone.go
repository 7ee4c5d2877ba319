// Package timezone converts between wall-clock times in IANA zones and UTC
// instants. All stored timestamps are UTC; zone names are only used at the
// edges for input and display.
package timezone

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/Domenick1991/fitbooking/internal/domain"
)

const (
	// LocalLayout is the wall-clock format accepted on input and produced by FromUTC.
	LocalLayout = "2006-01-02 15:04"
	// DisplayLayout matches the listing format exposed by the API.
	DisplayLayout = "2006-01-02 15:04:05 MST"
)

var inputLayouts = []string{LocalLayout, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02T15:04:05"}

var locations sync.Map

// Load resolves an IANA zone name.
func Load(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, domain.Validation("timezone_str", "timezone is required")
	}
	if loc, ok := locations.Load(zone); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil || strings.EqualFold(zone, "local") {
		return nil, domain.Validation("timezone_str", fmt.Sprintf("unknown timezone %q", zone))
	}
	locations.Store(zone, loc)
	return loc, nil
}

// ToUTC interprets local as a wall-clock time in zone and returns the
// matching UTC instant. Wall times that fall into a DST gap are moved
// forward by the zone rules.
func ToUTC(local, zone string) (time.Time, error) {
	loc, err := Load(zone)
	if err != nil {
		return time.Time{}, err
	}
	local = strings.TrimSpace(local)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, local, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.Validation("datetime_str", fmt.Sprintf("invalid datetime %q, expected YYYY-MM-DD HH:MM", local))
}

// FromUTC renders t as a wall-clock time in zone along with the zone
// abbreviation in effect at that instant.
func FromUTC(t time.Time, zone string) (string, string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", "", err
	}
	local := t.In(loc)
	abbrev, _ := local.Zone()
	return local.Format(LocalLayout), abbrev, nil
}

// Display renders t in zone using DisplayLayout.
func Display(t time.Time, zone string) (string, error) {
	loc, err := Load(zone)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(DisplayLayout), nil
}
