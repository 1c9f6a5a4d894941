package scheduling

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EventTypeInput carries the fields a user sets when creating an event type.
// Slug may be empty, in which case one is derived from the name.
type EventTypeInput struct {
	Name             string
	Slug             string
	DurationMinutes  int
	Description      *string
	Location         string
	LocationDetails  *string
	Color            string
	BufferMinutes    int
	MinNoticeHours   int
	MaxDaysInAdvance int
}

// EventTypeUpdate is a partial update; nil fields are left unchanged.
type EventTypeUpdate struct {
	Name             *string
	Slug             *string
	DurationMinutes  *int
	Description      *string
	Location         *string
	LocationDetails  *string
	Color            *string
	IsActive         *bool
	BufferMinutes    *int
	MinNoticeHours   *int
	MaxDaysInAdvance *int
}

type EventTypeService struct {
	repo Repository
}

func NewEventTypeService(repo Repository) *EventTypeService {
	return &EventTypeService{repo: repo}
}

func (s *EventTypeService) CreateEventType(ctx context.Context, userID uuid.UUID, in EventTypeInput) (*EventType, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationf("name is required")
	}
	if err := validateEventTypeBounds(in.DurationMinutes, in.BufferMinutes, in.MinNoticeHours, in.MaxDaysInAdvance); err != nil {
		return nil, err
	}

	slug, err := s.resolveSlug(ctx, userID, in.Slug, in.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	location := in.Location
	if location == "" {
		location = "Online"
	}
	color := in.Color
	if color == "" {
		color = "#3b82f6"
	}

	et := &EventType{
		UserID:           userID,
		Name:             in.Name,
		Slug:             slug,
		DurationMinutes:  in.DurationMinutes,
		Description:      in.Description,
		Location:         location,
		LocationDetails:  in.LocationDetails,
		Color:            color,
		IsActive:         true,
		BufferMinutes:    in.BufferMinutes,
		MinNoticeHours:   in.MinNoticeHours,
		MaxDaysInAdvance: in.MaxDaysInAdvance,
	}
	if err := s.repo.CreateEventType(ctx, et); err != nil {
		return nil, fmt.Errorf("create event type: %w", err)
	}
	return et, nil
}

func (s *EventTypeService) ListEventTypes(ctx context.Context, userID uuid.UUID) ([]EventType, error) {
	return s.repo.ListEventTypes(ctx, userID)
}

func (s *EventTypeService) GetEventType(ctx context.Context, id, userID uuid.UUID) (*EventType, error) {
	return s.repo.GetEventType(ctx, id, userID)
}

func (s *EventTypeService) UpdateEventType(ctx context.Context, id, userID uuid.UUID, upd EventTypeUpdate) (*EventType, error) {
	et, err := s.repo.GetEventType(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, validationf("name cannot be empty")
		}
		et.Name = *upd.Name
	}
	// Resolved after the name so an empty slug derives from the updated name.
	if upd.Slug != nil && !strings.EqualFold(*upd.Slug, et.Slug) {
		slug, err := s.resolveSlug(ctx, userID, *upd.Slug, et.Name, et.ID)
		if err != nil {
			return nil, err
		}
		et.Slug = slug
	}
	if upd.DurationMinutes != nil {
		et.DurationMinutes = *upd.DurationMinutes
	}
	if upd.Description != nil {
		et.Description = upd.Description
	}
	if upd.Location != nil {
		et.Location = *upd.Location
	}
	if upd.LocationDetails != nil {
		et.LocationDetails = upd.LocationDetails
	}
	if upd.Color != nil {
		et.Color = *upd.Color
	}
	if upd.IsActive != nil {
		et.IsActive = *upd.IsActive
	}
	if upd.BufferMinutes != nil {
		et.BufferMinutes = *upd.BufferMinutes
	}
	if upd.MinNoticeHours != nil {
		et.MinNoticeHours = *upd.MinNoticeHours
	}
	if upd.MaxDaysInAdvance != nil {
		et.MaxDaysInAdvance = *upd.MaxDaysInAdvance
	}

	if err := validateEventTypeBounds(et.DurationMinutes, et.BufferMinutes, et.MinNoticeHours, et.MaxDaysInAdvance); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateEventType(ctx, et); err != nil {
		return nil, fmt.Errorf("update event type: %w", err)
	}
	return et, nil
}

func (s *EventTypeService) DeleteEventType(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.DeleteEventType(ctx, id, userID)
}

// resolveSlug normalizes or derives the slug. An explicit slug that is taken
// is rejected; a derived slug is disambiguated with -2, -3, ... suffixes.
func (s *EventTypeService) resolveSlug(ctx context.Context, userID uuid.UUID, requested, name string, excludeID uuid.UUID) (string, error) {
	if requested != "" {
		slug := strings.ToLower(requested)
		if !validSlug(slug) {
			return "", validationf("slug may contain only lowercase letters, digits and hyphens")
		}
		taken, err := s.repo.SlugTaken(ctx, userID, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return "", validationf("event type with slug %q already exists", slug)
		}
		return slug, nil
	}

	base := Slugify(name)
	if base == "" {
		return "", validationf("cannot derive a slug from name %q", name)
	}

	slug := base
	for i := 2; ; i++ {
		taken, err := s.repo.SlugTaken(ctx, userID, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func validateEventTypeBounds(duration, buffer, notice, horizon int) error {
	if duration < 5 || duration > 480 {
		return validationf("duration_minutes must be between 5 and 480")
	}
	if buffer < 0 || buffer > 120 {
		return validationf("buffer_minutes must be between 0 and 120")
	}
	if notice < 0 || notice > 168 {
		return validationf("min_notice_hours must be between 0 and 168")
	}
	if horizon < 1 || horizon > 365 {
		return validationf("max_days_in_advance must be between 1 and 365")
	}
	return nil
}
