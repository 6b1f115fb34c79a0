package schedule

import (
	"errors"
	"fmt"
	"time"
)

// SlotMinutes is the fixed appointment granularity. Slots always start on
// the hour; the clinic runs a single consulting room, so one appointment
// occupies a (date, time) pair clinic-wide.
const SlotMinutes = 60

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
)

type TimeRange struct {
	Start string
	End   string
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse("15:04", timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}

	parsed, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}

	return parsed, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	startToday := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := ParseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}

// dayRanges returns the working blocks for a weekday. Monday through Friday
// the clinic opens a morning and an afternoon block; weekends only the
// morning block.
func dayRanges(day time.Weekday) []TimeRange {
	switch day {
	case time.Saturday, time.Sunday:
		return []TimeRange{{Start: "09:00", End: "12:00"}}
	default:
		return []TimeRange{{Start: "09:00", End: "12:00"}, {Start: "14:00", End: "18:00"}}
	}
}

// TemplateSlots returns every bookable time for the date's weekday class,
// in ascending order. Weekdays yield 09:00-11:00 plus 14:00-17:00 hourly
// (7 slots); weekends 09:00-11:00 (3 slots).
func TemplateSlots(dateStr string, loc *time.Location) ([]string, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, 8)
	for _, tr := range dayRanges(date.Weekday()) {
		startMin, err := ParseClockToMinutes(tr.Start)
		if err != nil {
			return nil, err
		}
		endMin, err := ParseClockToMinutes(tr.End)
		if err != nil {
			return nil, err
		}

		for cursor := startMin; cursor+SlotMinutes <= endMin; cursor += SlotMinutes {
			slots = append(slots, MinutesToClock(cursor))
		}
	}

	return slots, nil
}

// AvailableSlots filters the date's template down to times not present in
// reserved. Reserved entries come from non-cancelled appointments on the
// same date; an empty result is a valid answer, not an error.
func AvailableSlots(dateStr string, loc *time.Location, reserved map[string]bool) ([]string, error) {
	slots, err := TemplateSlots(dateStr, loc)
	if err != nil {
		return nil, err
	}
	available := make([]string, 0, len(slots))
	for _, s := range slots {
		if !reserved[s] {
			available = append(available, s)
		}
	}
	return available, nil
}

// IsSlotInTemplate reports whether timeStr is one of the date's template
// slots at all, regardless of bookings.
func IsSlotInTemplate(dateStr, timeStr string, loc *time.Location) (bool, error) {
	slots, err := TemplateSlots(dateStr, loc)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s == timeStr {
			return true, nil
		}
	}
	return false, nil
}

// IsSlotAvailable is the full submission-time check: the date must not be
// past, the time must belong to the template, must not have already gone
// by today, and must not be reserved.
func IsSlotAvailable(dateStr, timeStr string, loc *time.Location, now time.Time, reserved map[string]bool) (bool, error) {
	pastDate, err := IsDatePast(dateStr, loc, now)
	if err != nil {
		return false, err
	}
	if pastDate {
		return false, nil
	}

	allowed, err := IsSlotInTemplate(dateStr, timeStr, loc)
	if err != nil || !allowed {
		return false, err
	}

	pastSlot, err := IsSlotPast(dateStr, timeStr, loc, now)
	if err != nil {
		return false, err
	}
	if pastSlot {
		return false, nil
	}

	if reserved != nil && reserved[timeStr] {
		return false, nil
	}
	return true, nil
}
