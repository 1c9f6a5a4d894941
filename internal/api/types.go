package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/scheduling"
)

// Requests

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RuleRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,len=5"`
	EndTime   string `json:"end_time" validate:"required,len=5"`
}

type ReplaceRulesRequest struct {
	Rules []RuleRequest `json:"rules" validate:"dive"`
}

type CreateEventTypeRequest struct {
	Name             string  `json:"name" validate:"required,max=100"`
	Slug             string  `json:"slug" validate:"omitempty,max=100"`
	DurationMinutes  int     `json:"duration_minutes" validate:"required,min=5,max=480"`
	Description      *string `json:"description" validate:"omitempty,max=1000"`
	Location         string  `json:"location" validate:"omitempty,max=50"`
	LocationDetails  *string `json:"location_details" validate:"omitempty,max=500"`
	Color            string  `json:"color" validate:"omitempty,hexcolor"`
	BufferMinutes    int     `json:"buffer_minutes" validate:"min=0,max=120"`
	MinNoticeHours   int     `json:"min_notice_hours" validate:"min=0,max=168"`
	MaxDaysInAdvance int     `json:"max_days_in_advance" validate:"required,min=1,max=365"`
}

type UpdateEventTypeRequest struct {
	Name             *string `json:"name" validate:"omitempty,max=100"`
	Slug             *string `json:"slug" validate:"omitempty,max=100"`
	DurationMinutes  *int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Description      *string `json:"description" validate:"omitempty,max=1000"`
	Location         *string `json:"location" validate:"omitempty,max=50"`
	LocationDetails  *string `json:"location_details" validate:"omitempty,max=500"`
	Color            *string `json:"color" validate:"omitempty,hexcolor"`
	IsActive         *bool   `json:"is_active"`
	BufferMinutes    *int    `json:"buffer_minutes" validate:"omitempty,min=0,max=120"`
	MinNoticeHours   *int    `json:"min_notice_hours" validate:"omitempty,min=0,max=168"`
	MaxDaysInAdvance *int    `json:"max_days_in_advance" validate:"omitempty,min=1,max=365"`
}

type CreateBookingRequest struct {
	GuestName  string    `json:"guest_name" validate:"required,max=255"`
	GuestEmail string    `json:"guest_email" validate:"required,email"`
	GuestPhone *string   `json:"guest_phone" validate:"omitempty,max=20"`
	Notes      *string   `json:"notes" validate:"omitempty,max=1000"`
	StartTime  time.Time `json:"start_time" validate:"required"`
}

type CancelBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// Responses

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type RuleResponse struct {
	ID            uuid.UUID `json:"id"`
	DayOfWeek     int       `json:"day_of_week"`
	DayOfWeekName string    `json:"day_of_week_name"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

type EventTypeResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	DurationMinutes  int       `json:"duration_minutes"`
	Description      *string   `json:"description,omitempty"`
	Location         string    `json:"location"`
	LocationDetails  *string   `json:"location_details,omitempty"`
	Color            string    `json:"color"`
	IsActive         bool      `json:"is_active"`
	BufferMinutes    int       `json:"buffer_minutes"`
	MinNoticeHours   int       `json:"min_notice_hours"`
	MaxDaysInAdvance int       `json:"max_days_in_advance"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type BookingResponse struct {
	ID                 uuid.UUID                `json:"id"`
	EventTypeID        uuid.UUID                `json:"event_type_id"`
	EventTypeName      string                   `json:"event_type_name,omitempty"`
	GuestName          string                   `json:"guest_name"`
	GuestEmail         string                   `json:"guest_email"`
	GuestPhone         *string                  `json:"guest_phone,omitempty"`
	Notes              *string                  `json:"notes,omitempty"`
	StartTime          time.Time                `json:"start_time"`
	EndTime            time.Time                `json:"end_time"`
	Status             scheduling.BookingStatus `json:"status"`
	CancellationReason *string                  `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	GoogleEventID      *string                  `json:"google_event_id,omitempty"`
}

func userResponse(u *scheduling.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
	}
}

// ruleResponse formats a stored rule. Storage counts Monday=1 .. Sunday=7
// while the day-name table is zero-based with Sunday=0, so the index is
// folded with %7 at this one boundary.
func ruleResponse(r scheduling.AvailabilityRule) RuleResponse {
	return RuleResponse{
		ID:            r.ID,
		DayOfWeek:     r.DayOfWeek,
		DayOfWeekName: scheduling.DayName(r.DayOfWeek % 7),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
	}
}

func eventTypeResponse(et *scheduling.EventType) EventTypeResponse {
	return EventTypeResponse{
		ID:               et.ID,
		Name:             et.Name,
		Slug:             et.Slug,
		DurationMinutes:  et.DurationMinutes,
		Description:      et.Description,
		Location:         et.Location,
		LocationDetails:  et.LocationDetails,
		Color:            et.Color,
		IsActive:         et.IsActive,
		BufferMinutes:    et.BufferMinutes,
		MinNoticeHours:   et.MinNoticeHours,
		MaxDaysInAdvance: et.MaxDaysInAdvance,
		CreatedAt:        et.CreatedAt,
		UpdatedAt:        et.UpdatedAt,
	}
}

func bookingResponse(b *scheduling.Booking, et *scheduling.EventType) BookingResponse {
	resp := BookingResponse{
		ID:                 b.ID,
		EventTypeID:        b.EventTypeID,
		GuestName:          b.GuestName,
		GuestEmail:         b.GuestEmail,
		GuestPhone:         b.GuestPhone,
		Notes:              b.Notes,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Status:             b.Status,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		GoogleEventID:      b.GoogleEventID,
	}
	if et != nil {
		resp.EventTypeName = et.Name
	}
	return resp
}
