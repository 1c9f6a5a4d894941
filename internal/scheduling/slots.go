package scheduling

import (
	"fmt"
	"time"

	"github.com/meetflow/meetflow/internal/calendar"
)

// DefaultStep is the spacing between candidate slot starts.
const DefaultStep = 15 * time.Minute

// GenerateSlots expands one availability window into bookable slots.
// Candidates begin at windowStart and advance by step; a candidate survives
// if it fits inside the window and its buffer-padded interval overlaps no
// busy interval. Intervals are half-open, so a slot that ends exactly where
// a busy interval starts is kept. Pure: fixed inputs give fixed output.
func GenerateSlots(windowStart, windowEnd time.Time, duration, buffer time.Duration, busy []calendar.BusyInterval, step time.Duration) []Slot {
	if step <= 0 {
		step = DefaultStep
	}
	if !windowEnd.After(windowStart) {
		return nil
	}

	var slots []Slot
	for cur := windowStart; !cur.Add(duration).After(windowEnd); cur = cur.Add(step) {
		end := cur.Add(duration)
		if overlapsBusy(cur, end, buffer, busy) {
			continue
		}
		slots = append(slots, Slot{Start: cur, End: end})
	}
	return slots
}

// overlapsBusy pads the candidate symmetrically by buffer before comparing,
// so the buffer applies no matter which side the busy interval falls on.
func overlapsBusy(start, end time.Time, buffer time.Duration, busy []calendar.BusyInterval) bool {
	paddedStart := start.Add(-buffer)
	paddedEnd := end.Add(buffer)
	for _, b := range busy {
		if paddedStart.Before(b.End) && paddedEnd.After(b.Start) {
			return true
		}
	}
	return false
}

// parseHHMM reads a time-of-day like "09:00" (longer strings such as
// "09:00:00" are truncated).
func parseHHMM(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("invalid time of day: %q", s)
	}
	tt, err := time.Parse("15:04", s[:5])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day: %q", s)
	}
	return tt, nil
}

// ruleWindow anchors a rule's time-of-day bounds onto a concrete date in UTC.
func ruleWindow(rule AvailabilityRule, date time.Time) (start, end time.Time, err error) {
	startTOD, err := parseHHMM(rule.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endTOD, err := parseHHMM(rule.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	year, month, day := date.Date()
	start = time.Date(year, month, day, startTOD.Hour(), startTOD.Minute(), 0, 0, time.UTC)
	end = time.Date(year, month, day, endTOD.Hour(), endTOD.Minute(), 0, 0, time.UTC)
	return start, end, nil
}
