package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotConnected means the user has no active calendar link. Callers treat
// it as "no busy data", not as a failure.
var ErrNotConnected = errors.New("calendar not connected")

// BusyInterval is a time range the external calendar reports as occupied.
type BusyInterval struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Summary    string    `json:"summary,omitempty"`
	CalendarID string    `json:"calendar_id,omitempty"`
}

// EventRequest describes the event mirrored onto the external calendar after
// a booking is confirmed.
type EventRequest struct {
	Summary       string
	Description   string
	Location      string
	Start         time.Time
	End           time.Time
	AttendeeEmail string
	AttendeeName  string
}

// Gateway is the narrow surface the scheduling core consumes. Credential
// storage and refresh stay behind it; the core never touches provider types.
type Gateway interface {
	IsConnected(ctx context.Context, userID uuid.UUID) bool

	// BusyIntervals returns the user's busy ranges within [from, to).
	// Returns ErrNotConnected when no active link exists.
	BusyIntervals(ctx context.Context, userID uuid.UUID, from, to time.Time, calendarIDs ...string) ([]BusyInterval, error)

	// CreateEvent mirrors a confirmed booking and returns the external
	// event id.
	CreateEvent(ctx context.Context, userID uuid.UUID, req EventRequest) (string, error)
}
