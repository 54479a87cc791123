package scheduler

import (
	"fmt"
	"strings"
)

// Day is a three-letter weekday code.
type Day string

const (
	Monday    Day = "MON"
	Tuesday   Day = "TUE"
	Wednesday Day = "WED"
	Thursday  Day = "THU"
	Friday    Day = "FRI"
	Saturday  Day = "SAT"
	Sunday    Day = "SUN"
)

// Days lists every bookable day in week order.
var Days = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

const (
	// FirstHour is the earliest bookable start hour.
	FirstHour = 9
	// LastHour is the latest bookable start hour; its slot ends at 23:00.
	LastHour = 22
	// HoursPerDay is the number of slots on each day.
	HoursPerDay = LastHour - FirstHour + 1
)

// ParseDay upper-cases the input and reports whether it names a known day.
// The normalized value is returned even when it is not valid so callers can
// echo it back in messages.
func ParseDay(value string) (Day, bool) {
	day := Day(strings.ToUpper(value))
	return day, day.Valid()
}

// Valid reports whether d is one of the seven day codes.
func (d Day) Valid() bool {
	return d.index() >= 0
}

func (d Day) index() int {
	for i, candidate := range Days {
		if candidate == d {
			return i
		}
	}
	return -1
}

// String implements fmt.Stringer.
func (d Day) String() string {
	return string(d)
}

// ValidHour reports whether hour is a bookable start hour.
func ValidHour(hour int) bool {
	return hour >= FirstHour && hour <= LastHour
}

// Hours returns the bookable start hours in ascending order.
func Hours() []int {
	hours := make([]int, 0, HoursPerDay)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// FormatTimeSlot renders the one-hour window starting at hour, e.g. "09:00-10:00".
func FormatTimeSlot(hour int) string {
	return fmt.Sprintf("%02d:00-%02d:00", hour, hour+1)
}

// FormatSpan renders the window without zero padding, e.g. "9:00-10:00".
func FormatSpan(hour int) string {
	return fmt.Sprintf("%d:00-%d:00", hour, hour+1)
}
