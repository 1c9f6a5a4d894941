package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusNoShow    BookingStatus = "NoShow"
	StatusCompleted BookingStatus = "Completed"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AvailabilityRule is one recurring weekly window during which the owner can
// be booked. DayOfWeek runs Monday=1 .. Sunday=7; times are naive "HH:MM"
// strings interpreted in UTC.
type AvailabilityRule struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	DayOfWeek int
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EventType struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Name             string
	Slug             string
	DurationMinutes  int
	Description      *string
	Location         string
	LocationDetails  *string
	Color            string
	IsActive         bool
	BufferMinutes    int
	MinNoticeHours   int
	MaxDaysInAdvance int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Booking belongs to an event type; the owning user is reached through it.
// Only cancellation (and the sweep worker's Completed flip) mutate a booking
// after creation.
type Booking struct {
	ID                 uuid.UUID
	EventTypeID        uuid.UUID
	GuestName          string
	GuestEmail         string
	GuestPhone         *string
	Notes              *string
	StartTime          time.Time
	EndTime            time.Time
	Status             BookingStatus
	CancellationReason *string
	CancelledAt        *time.Time
	GoogleEventID      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// BookingDetail is a booking hydrated with its event type for list views.
type BookingDetail struct {
	Booking
	EventType *EventType
}

// Slot is one bookable start/end pair.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ruleDayOfWeek maps a calendar date to the rule storage numbering, which
// runs Monday=1 .. Sunday=7. time.Weekday has Sunday=0; only Sunday needs
// remapping.
func ruleDayOfWeek(t time.Time) int {
	d := int(t.Weekday())
	if d == 0 {
		return 7
	}
	return d
}

// DayName formats a zero-based day number (Sunday=0 .. Saturday=6). Rule
// storage counts Monday=1 .. Sunday=7, so callers holding a storage value
// must pass d%7 to land on the same weekday.
func DayName(d int) string {
	switch d {
	case 0:
		return "Sunday"
	case 1:
		return "Monday"
	case 2:
		return "Tuesday"
	case 3:
		return "Wednesday"
	case 4:
		return "Thursday"
	case 5:
		return "Friday"
	case 6:
		return "Saturday"
	default:
		return "Unknown"
	}
}
