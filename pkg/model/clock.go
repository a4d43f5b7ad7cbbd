package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a time of day expressed in minutes since midnight
type Clock int

// Weekday follows the 0=Monday..6=Sunday convention of the catalog
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

func (day Weekday) String() string {
	name, ok := weekdayNames[day]
	if !ok {
		return fmt.Sprintf("Weekday(%d)", int(day))
	}
	return name
}

func (day Weekday) MarshalText() ([]byte, error) {
	return []byte(day.String()), nil
}

func (day *Weekday) UnmarshalText(text []byte) error {
	for candidate, name := range weekdayNames {
		if strings.EqualFold(name, string(text)) {
			*day = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid weekday \"%v\"", string(text))
}

// At builds a Clock from an hour and a minute
func At(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses the "HH:MM" form (a trailing ":SS" is accepted and ignored)
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock \"%v\": expected HH:MM", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in clock \"%v\"", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in clock \"%v\"", value)
	}
	return At(hour, minute), nil
}

// Add returns the clock shifted by the given amount of minutes
func (clock Clock) Add(minutes int) Clock {
	return clock + Clock(minutes)
}

func (clock Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(clock)/60, int(clock)%60)
}

func (clock Clock) MarshalText() ([]byte, error) {
	return []byte(clock.String()), nil
}

func (clock *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*clock = parsed
	return nil
}

// Interval is a half-open [Start, End) window within a day
type Interval struct {
	Start Clock
	End   Clock
}

// Minutes returns the length of the interval
func (interval Interval) Minutes() int {
	return int(interval.End - interval.Start)
}

// Overlaps reports whether two windows of the same day intersect
func (interval Interval) Overlaps(other Interval) bool {
	return Overlaps(interval.Start, interval.End, other.Start, other.End)
}

// Contains reports whether other lies entirely within interval
func (interval Interval) Contains(other Interval) bool {
	return interval.Start <= other.Start && interval.End >= other.End
}

func (interval Interval) String() string {
	return interval.Start.String() + "-" + interval.End.String()
}

// Overlaps computes the half-open intersection test max(s1,s2) < min(e1,e2); touching endpoints do not overlap
func Overlaps(start1, end1, start2, end2 Clock) bool {
	return max(start1, start2) < min(end1, end2)
}
