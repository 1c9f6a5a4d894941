package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/calendar"
)

// EventTypeInfo is the public-facing subset of an event type echoed with
// availability and confirmation responses.
type EventTypeInfo struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	DurationMinutes int     `json:"duration_minutes"`
	Location        string  `json:"location"`
	Description     *string `json:"description,omitempty"`
}

type DayAvailability struct {
	Date           string        `json:"date"`
	EventType      EventTypeInfo `json:"event_type"`
	AvailableSlots []Slot        `json:"available_slots"`
}

// Resolver computes the bookable slots of one user/event-type/date. It reads
// the rule store and the calendar gateway but never writes anything.
type Resolver struct {
	repo           Repository
	gateway        calendar.Gateway
	gatewayTimeout time.Duration
	step           time.Duration
	now            func() time.Time
}

func NewResolver(repo Repository, gateway calendar.Gateway, gatewayTimeout time.Duration) *Resolver {
	return &Resolver{
		repo:           repo,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		step:           DefaultStep,
		now:            time.Now,
	}
}

// DayAvailability resolves the bookable slots for one calendar day. A date
// outside the event type's notice/horizon window, or a day without rules,
// yields a valid response with no slots; only a missing user or event type
// is an error.
func (r *Resolver) DayAvailability(ctx context.Context, username, slug string, date time.Time) (*DayAvailability, error) {
	user, err := r.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	eventType, err := r.repo.GetActiveEventTypeBySlug(ctx, user.ID, slug)
	if err != nil {
		return nil, err
	}

	date = midnightUTC(date)
	resp := &DayAvailability{
		Date:           date.Format("2006-01-02"),
		EventType:      eventTypeInfo(eventType),
		AvailableSlots: []Slot{},
	}

	today := midnightUTC(r.now())
	minDate := today.AddDate(0, 0, noticeDays(eventType.MinNoticeHours))
	maxDate := today.AddDate(0, 0, eventType.MaxDaysInAdvance)
	if date.Before(minDate) || date.After(maxDate) {
		return resp, nil
	}

	rules, err := r.repo.ListRulesForDay(ctx, user.ID, ruleDayOfWeek(date))
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	if len(rules) == 0 {
		return resp, nil
	}

	busy := r.busyForDay(ctx, user.ID, date)

	duration := time.Duration(eventType.DurationMinutes) * time.Minute
	buffer := time.Duration(eventType.BufferMinutes) * time.Minute

	for _, rule := range rules {
		windowStart, windowEnd, err := ruleWindow(rule, date)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		resp.AvailableSlots = append(resp.AvailableSlots,
			GenerateSlots(windowStart, windowEnd, duration, buffer, busy, r.step)...)
	}

	return resp, nil
}

// busyForDay fetches the user's busy intervals for the whole day. A
// disconnected or degraded gateway degrades to an empty list; availability
// never fails because the external calendar is down.
func (r *Resolver) busyForDay(ctx context.Context, userID uuid.UUID, date time.Time) []calendar.BusyInterval {
	gwCtx, cancel := context.WithTimeout(ctx, r.gatewayTimeout)
	defer cancel()

	busy, err := r.gateway.BusyIntervals(gwCtx, userID, date, date.AddDate(0, 0, 1))
	if err != nil {
		if !errors.Is(err, calendar.ErrNotConnected) {
			log.Printf("calendar gateway degraded for user %s: %v", userID, err)
		}
		return nil
	}
	return busy
}

func eventTypeInfo(et *EventType) EventTypeInfo {
	return EventTypeInfo{
		Name:            et.Name,
		Slug:            et.Slug,
		DurationMinutes: et.DurationMinutes,
		Location:        et.Location,
		Description:     et.Description,
	}
}

// noticeDays converts a minimum-notice requirement in hours to whole days,
// rounding up.
func noticeDays(minNoticeHours int) int {
	return (minNoticeHours + 23) / 24
}

func midnightUTC(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
