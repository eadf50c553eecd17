package domain

import (
	"errors"
	"fmt"
	"time"
)

// SlotMinutes is the fixed length of a bookable slot.
const SlotMinutes = 60

// ISOWeekday maps a calendar date to the rule day code: native Sunday
// (weekday 0) becomes 7, Monday..Saturday stay 1..6. The date is read
// in UTC.
func ISOWeekday(t time.Time) int {
	wd := int(t.UTC().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MinuteOfDay returns the instant's wall-clock minutes since midnight,
// read in UTC.
func MinuteOfDay(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

// ClockLabel renders minutes-since-midnight as a zero-padded 24-hour
// "HH:MM" label.
func ClockLabel(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses a zero-padded "HH:MM" label into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, errors.New("invalid time, want HH:MM")
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, errors.New("invalid time, want HH:MM")
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errors.New("invalid time, want HH:MM")
	}
	return h*60 + m, nil
}

// RuleCovers reports whether any rule's half-open [start, end) minute
// interval contains the given minute of day.
func RuleCovers(rules []WorkHourRule, minute int) bool {
	for _, r := range rules {
		if minute >= r.StartMinute && minute < r.EndMinute {
			return true
		}
	}
	return false
}

// DaySlots expands the day's work-hour rules into bookable "HH:MM"
// slot labels, dropping any slot whose label matches the start label
// of an existing booking.
//
// Slots are anchored to each rule's start minute, not to wall-clock
// hour boundaries: a rule starting 09:15 yields 09:15, 10:15, ...
// The walk emits every slot with start < end, so a trailing slot may
// extend past the rule's end. Occupancy is an exact start-label match,
// not an interval-overlap test. Output is rule by rule in input order,
// ascending within each rule, and not globally sorted.
func DaySlots(rules []WorkHourRule, booked []Appointment) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[ClockLabel(MinuteOfDay(a.StartTime))] = struct{}{}
	}

	slots := []string{}
	for _, r := range rules {
		for slot := r.StartMinute; slot < r.EndMinute; slot += SlotMinutes {
			label := ClockLabel(slot)
			if _, ok := taken[label]; ok {
				continue
			}
			slots = append(slots, label)
		}
	}
	return slots
}

// DayBounds returns the full 24-hour span of the instant's calendar
// date in UTC: [00:00:00.000, 23:59:59.999].
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
	return start, end
}
