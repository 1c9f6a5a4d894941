package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the scheduling services.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Event types
	CreateEventType(ctx context.Context, et *EventType) error
	ListEventTypes(ctx context.Context, userID uuid.UUID) ([]EventType, error)
	GetEventType(ctx context.Context, id, userID uuid.UUID) (*EventType, error)
	GetActiveEventTypeBySlug(ctx context.Context, userID uuid.UUID, slug string) (*EventType, error)
	SlugTaken(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	UpdateEventType(ctx context.Context, et *EventType) error
	DeleteEventType(ctx context.Context, id, userID uuid.UUID) error

	// Availability rules
	CreateRule(ctx context.Context, r *AvailabilityRule) error
	ListRules(ctx context.Context, userID uuid.UUID) ([]AvailabilityRule, error)
	ListRulesForDay(ctx context.Context, userID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error)
	DeleteRule(ctx context.Context, id, userID uuid.UUID) error
	// ReplaceRules swaps the user's full rule set atomically; concurrent
	// readers see either the old set or the new one, never the gap.
	ReplaceRules(ctx context.Context, userID uuid.UUID, rules []AvailabilityRule) error

	// Bookings
	CreateBooking(ctx context.Context, b *Booking) error
	GetBookingOwned(ctx context.Context, id, ownerID uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, ownerID uuid.UUID, filter string, now time.Time) ([]BookingDetail, error)
	// HasOverlappingBooking checks non-cancelled bookings of the owner's
	// event types against [start, end) with strict overlap.
	HasOverlappingBooking(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error)
	MarkBookingCancelled(ctx context.Context, id uuid.UUID, reason *string, at time.Time) error
	SetBookingGoogleEventID(ctx context.Context, id uuid.UUID, googleEventID string) error

	// Sweep worker
	CompletePastBookings(ctx context.Context, now time.Time) (int64, error)
}
