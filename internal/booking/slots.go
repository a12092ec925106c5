package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TimeSlots are the bookable start times, hourly from 09:00 to 20:00.
var TimeSlots = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"01:00 PM", "02:00 PM", "03:00 PM", "04:00 PM",
	"05:00 PM", "06:00 PM", "07:00 PM", "08:00 PM",
}

var slotPattern = regexp.MustCompile(`(\d+):(\d+)\s*([AP]M)`)

// IsSlot reports whether s is one of TimeSlots.
func IsSlot(s string) bool {
	for _, slot := range TimeSlots {
		if slot == s {
			return true
		}
	}
	return false
}

// ParseSlot converts a 12-hour "hh:mm AM|PM" string to a 24-hour hour and minute.
func ParseSlot(s string) (hour, minute int, err error) {
	m := slotPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}

	switch {
	case m[3] == "PM" && hour < 12:
		hour += 12
	case m[3] == "AM" && hour == 12:
		hour = 0
	}
	return hour, minute, nil
}

// Compose combines the calendar day of date with slot into one instant in loc.
func Compose(date time.Time, slot string, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseSlot(slot)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, loc), nil
}
