package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/calendar"
	redisclient "github.com/meetflow/meetflow/internal/redis"
)

// GuestInfo is what a public visitor submits with a booking request.
type GuestInfo struct {
	Name  string
	Email string
	Phone *string
	Notes *string
}

// BookingConfirmation echoes the committed booking back to the guest.
type BookingConfirmation struct {
	BookingID       uuid.UUID     `json:"booking_id"`
	GuestName       string        `json:"guest_name"`
	GuestEmail      string        `json:"guest_email"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	EventTypeName   string        `json:"event_type_name"`
	Location        string        `json:"location"`
	LocationDetails *string       `json:"location_details,omitempty"`
	DurationMinutes int           `json:"duration_minutes"`
	Status          BookingStatus `json:"status"`
	GoogleEventID   string        `json:"google_event_id,omitempty"`
}

// BookingService admits booking requests and manages their lifecycle.
type BookingService struct {
	repo           Repository
	gateway        calendar.Gateway
	locker         redisclient.Locker
	gatewayTimeout time.Duration
	now            func() time.Time
}

func NewBookingService(repo Repository, gateway calendar.Gateway, locker redisclient.Locker, gatewayTimeout time.Duration) *BookingService {
	return &BookingService{
		repo:           repo,
		gateway:        gateway,
		locker:         locker,
		gatewayTimeout: gatewayTimeout,
		now:            time.Now,
	}
}

// CreateBooking validates the requested slot and commits the booking. The
// conflict checks and the insert run inside a per-slot distributed lock so
// two concurrent requests for the same slot cannot both pass the check:
// exactly one wins, the other sees ErrSlotUnavailable or ErrSlotBeingBooked.
func (s *BookingService) CreateBooking(ctx context.Context, username, slug string, guest GuestInfo, startTime time.Time) (*BookingConfirmation, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	eventType, err := s.repo.GetActiveEventTypeBySlug(ctx, user.ID, slug)
	if err != nil {
		return nil, err
	}

	startTime = startTime.UTC()
	endTime := startTime.Add(time.Duration(eventType.DurationMinutes) * time.Minute)

	var booking *Booking

	err = s.locker.WithSlotLock(ctx, eventType.ID, startTime, func(lockCtx context.Context) error {
		if err := s.checkConflicts(lockCtx, user.ID, eventType, startTime, endTime); err != nil {
			return err
		}

		booking = &Booking{
			EventTypeID: eventType.ID,
			GuestName:   guest.Name,
			GuestEmail:  guest.Email,
			GuestPhone:  guest.Phone,
			Notes:       guest.Notes,
			StartTime:   startTime,
			EndTime:     endTime,
			Status:      StatusConfirmed,
		}
		if err := s.repo.CreateBooking(lockCtx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	// The local record is the source of truth; mirroring onto the external
	// calendar is best effort and never unwinds the booking.
	googleEventID := s.mirrorBooking(ctx, user.ID, eventType, booking)

	return &BookingConfirmation{
		BookingID:       booking.ID,
		GuestName:       booking.GuestName,
		GuestEmail:      booking.GuestEmail,
		StartTime:       booking.StartTime,
		EndTime:         booking.EndTime,
		EventTypeName:   eventType.Name,
		Location:        eventType.Location,
		LocationDetails: eventType.LocationDetails,
		DurationMinutes: eventType.DurationMinutes,
		Status:          booking.Status,
		GoogleEventID:   googleEventID,
	}, nil
}

// checkConflicts runs both admission layers. The event type's buffer widens
// the requested interval in both, matching the padding the slot generator
// applies, so admission can never accept a slot generation would not offer.
func (s *BookingService) checkConflicts(ctx context.Context, ownerID uuid.UUID, eventType *EventType, startTime, endTime time.Time) error {
	buffer := time.Duration(eventType.BufferMinutes) * time.Minute
	paddedStart := startTime.Add(-buffer)
	paddedEnd := endTime.Add(buffer)

	conflict, err := s.repo.HasOverlappingBooking(ctx, ownerID, paddedStart, paddedEnd)
	if err != nil {
		return fmt.Errorf("check local conflicts: %w", err)
	}
	if conflict {
		return ErrSlotUnavailable
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	day := midnightUTC(startTime)
	busy, err := s.gateway.BusyIntervals(gwCtx, ownerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		// A dead gateway skips the remote layer rather than failing
		// admission; local bookings still protect against double-booking.
		if !errors.Is(err, calendar.ErrNotConnected) {
			log.Printf("calendar gateway degraded during admission for user %s: %v", ownerID, err)
		}
		return nil
	}

	for _, b := range busy {
		if paddedStart.Before(b.End) && paddedEnd.After(b.Start) {
			return ErrSlotUnavailable
		}
	}
	return nil
}

// mirrorBooking creates the corresponding external calendar event. Failures
// are logged and swallowed; the returned id is empty when mirroring did not
// happen.
func (s *BookingService) mirrorBooking(ctx context.Context, ownerID uuid.UUID, eventType *EventType, booking *Booking) string {
	if !s.gateway.IsConnected(ctx, ownerID) {
		return ""
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	description := fmt.Sprintf("Meeting with %s (%s)", booking.GuestName, booking.GuestEmail)
	if eventType.Description != nil && *eventType.Description != "" {
		description += "\n\n" + *eventType.Description
	}
	if booking.Notes != nil && *booking.Notes != "" {
		description += "\n\nNotes: " + *booking.Notes
	}

	location := eventType.Location
	if eventType.LocationDetails != nil && *eventType.LocationDetails != "" {
		location = *eventType.LocationDetails
	}

	eventID, err := s.gateway.CreateEvent(gwCtx, ownerID, calendar.EventRequest{
		Summary:       fmt.Sprintf("%s - %s", eventType.Name, booking.GuestName),
		Description:   description,
		Location:      location,
		Start:         booking.StartTime,
		End:           booking.EndTime,
		AttendeeEmail: booking.GuestEmail,
		AttendeeName:  booking.GuestName,
	})
	if err != nil {
		log.Printf("failed to mirror booking %s to calendar: %v", booking.ID, err)
		return ""
	}

	if err := s.repo.SetBookingGoogleEventID(ctx, booking.ID, eventID); err != nil {
		log.Printf("failed to record calendar event id for booking %s: %v", booking.ID, err)
	}
	return eventID
}

// CancelBooking cancels a booking owned by ownerID. Ownership failures
// surface as not-found so callers cannot probe other users' bookings.
// Cancelling an already-cancelled booking is a no-op success.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, ownerID uuid.UUID, reason *string) error {
	booking, err := s.repo.GetBookingOwned(ctx, bookingID, ownerID)
	if err != nil {
		return err
	}
	if booking.Status == StatusCancelled {
		return nil
	}

	if err := s.repo.MarkBookingCancelled(ctx, booking.ID, reason, s.now().UTC()); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// ListBookings returns the owner's bookings; filter is one of
// upcoming, past, cancelled, all.
func (s *BookingService) ListBookings(ctx context.Context, ownerID uuid.UUID, filter string) ([]BookingDetail, error) {
	switch filter {
	case "", "all", "upcoming", "past", "cancelled":
	default:
		return nil, validationf("unknown filter %q", filter)
	}
	return s.repo.ListBookings(ctx, ownerID, filter, s.now().UTC())
}

// GetBooking returns a booking owned by ownerID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, ownerID uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingOwned(ctx, bookingID, ownerID)
}
