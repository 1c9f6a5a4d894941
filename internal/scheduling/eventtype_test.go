package scheduling

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func eventTypeRepo(taken map[string]bool) *mockRepository {
	return &mockRepository{
		SlugTakenFn: func(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
			return taken[slug], nil
		},
		CreateEventTypeFn: func(ctx context.Context, et *EventType) error {
			et.ID = uuid.New()
			return nil
		},
	}
}

func TestCreateEventTypeDefaults(t *testing.T) {
	svc := NewEventTypeService(eventTypeRepo(nil))

	et, err := svc.CreateEventType(context.Background(), uuid.New(), EventTypeInput{
		Name:             "Intro Call",
		DurationMinutes:  30,
		MaxDaysInAdvance: 30,
	})
	if err != nil {
		t.Fatalf("CreateEventType: %v", err)
	}

	if et.Slug != "intro-call" {
		t.Errorf("slug = %q, want intro-call", et.Slug)
	}
	if et.Location != "Online" {
		t.Errorf("location = %q, want default Online", et.Location)
	}
	if et.Color != "#3b82f6" {
		t.Errorf("color = %q, want default", et.Color)
	}
	if !et.IsActive {
		t.Error("new event type should start active")
	}
}

func TestCreateEventTypeBounds(t *testing.T) {
	svc := NewEventTypeService(eventTypeRepo(nil))
	base := EventTypeInput{Name: "X", DurationMinutes: 30, MaxDaysInAdvance: 30}

	cases := []struct {
		name   string
		mutate func(*EventTypeInput)
	}{
		{"empty name", func(in *EventTypeInput) { in.Name = "  " }},
		{"duration too short", func(in *EventTypeInput) { in.DurationMinutes = 4 }},
		{"duration too long", func(in *EventTypeInput) { in.DurationMinutes = 481 }},
		{"negative buffer", func(in *EventTypeInput) { in.BufferMinutes = -1 }},
		{"buffer too long", func(in *EventTypeInput) { in.BufferMinutes = 121 }},
		{"notice too long", func(in *EventTypeInput) { in.MinNoticeHours = 169 }},
		{"zero horizon", func(in *EventTypeInput) { in.MaxDaysInAdvance = 0 }},
		{"horizon too far", func(in *EventTypeInput) { in.MaxDaysInAdvance = 366 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			if _, err := svc.CreateEventType(context.Background(), uuid.New(), in); !IsValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestCreateEventTypeExplicitSlug(t *testing.T) {
	svc := NewEventTypeService(eventTypeRepo(map[string]bool{"taken": true}))
	in := EventTypeInput{Name: "Intro Call", DurationMinutes: 30, MaxDaysInAdvance: 30}

	in.Slug = "My-Call"
	et, err := svc.CreateEventType(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("CreateEventType: %v", err)
	}
	if et.Slug != "my-call" {
		t.Errorf("slug = %q, want lowercased my-call", et.Slug)
	}

	in.Slug = "taken"
	if _, err := svc.CreateEventType(context.Background(), uuid.New(), in); !IsValidation(err) {
		t.Errorf("taken explicit slug: err = %v, want validation error", err)
	}

	in.Slug = "no spaces!"
	if _, err := svc.CreateEventType(context.Background(), uuid.New(), in); !IsValidation(err) {
		t.Errorf("malformed slug: err = %v, want validation error", err)
	}
}

func TestCreateEventTypeDerivedSlugDisambiguates(t *testing.T) {
	svc := NewEventTypeService(eventTypeRepo(map[string]bool{
		"intro-call":   true,
		"intro-call-2": true,
	}))

	et, err := svc.CreateEventType(context.Background(), uuid.New(), EventTypeInput{
		Name: "Intro Call", DurationMinutes: 30, MaxDaysInAdvance: 30,
	})
	if err != nil {
		t.Fatalf("CreateEventType: %v", err)
	}
	if et.Slug != "intro-call-3" {
		t.Errorf("slug = %q, want intro-call-3", et.Slug)
	}
}

func TestUpdateEventTypePartial(t *testing.T) {
	userID := uuid.New()
	existing := testEventType(userID)

	var updated *EventType
	repo := &mockRepository{
		GetEventTypeFn: func(ctx context.Context, id, uid uuid.UUID) (*EventType, error) {
			if id != existing.ID || uid != userID {
				return nil, ErrEventTypeNotFound
			}
			cp := *existing
			return &cp, nil
		},
		UpdateEventTypeFn: func(ctx context.Context, et *EventType) error {
			updated = et
			return nil
		},
	}
	svc := NewEventTypeService(repo)

	newDuration := 45
	inactive := false
	got, err := svc.UpdateEventType(context.Background(), existing.ID, userID, EventTypeUpdate{
		DurationMinutes: &newDuration,
		IsActive:        &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateEventType: %v", err)
	}

	if got.DurationMinutes != 45 || got.IsActive {
		t.Errorf("updated = %+v", got)
	}
	// Untouched fields survive.
	if got.Name != existing.Name || got.Slug != existing.Slug {
		t.Errorf("partial update clobbered name/slug: %+v", got)
	}
	if updated == nil {
		t.Error("repository update was not called")
	}

	bad := 2
	if _, err := svc.UpdateEventType(context.Background(), existing.ID, userID, EventTypeUpdate{DurationMinutes: &bad}); !IsValidation(err) {
		t.Errorf("out-of-bounds update: err = %v, want validation error", err)
	}
}

func TestUpdateEventTypeSlugChange(t *testing.T) {
	userID := uuid.New()
	existing := testEventType(userID)

	repo := &mockRepository{
		GetEventTypeFn: func(ctx context.Context, id, uid uuid.UUID) (*EventType, error) {
			cp := *existing
			return &cp, nil
		},
		SlugTakenFn: func(ctx context.Context, uid uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
			if excludeID != existing.ID {
				t.Errorf("slug check must exclude the event type itself, got %s", excludeID)
			}
			return slug == "taken", nil
		},
		UpdateEventTypeFn: func(ctx context.Context, et *EventType) error { return nil },
	}
	svc := NewEventTypeService(repo)

	newSlug := "fresh-slug"
	got, err := svc.UpdateEventType(context.Background(), existing.ID, userID, EventTypeUpdate{Slug: &newSlug})
	if err != nil {
		t.Fatalf("UpdateEventType: %v", err)
	}
	if got.Slug != "fresh-slug" {
		t.Errorf("slug = %q, want fresh-slug", got.Slug)
	}

	conflict := "taken"
	if _, err := svc.UpdateEventType(context.Background(), existing.ID, userID, EventTypeUpdate{Slug: &conflict}); !IsValidation(err) {
		t.Errorf("taken slug: err = %v, want validation error", err)
	}
}

func TestUpdateEventTypeEmptySlugDerivesFromNewName(t *testing.T) {
	userID := uuid.New()
	existing := testEventType(userID)

	repo := &mockRepository{
		GetEventTypeFn: func(ctx context.Context, id, uid uuid.UUID) (*EventType, error) {
			cp := *existing
			return &cp, nil
		},
		SlugTakenFn: func(ctx context.Context, uid uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
			return false, nil
		},
		UpdateEventTypeFn: func(ctx context.Context, et *EventType) error { return nil },
	}
	svc := NewEventTypeService(repo)

	newName := "Strategy Session"
	empty := ""
	got, err := svc.UpdateEventType(context.Background(), existing.ID, userID, EventTypeUpdate{
		Name: &newName,
		Slug: &empty,
	})
	if err != nil {
		t.Fatalf("UpdateEventType: %v", err)
	}
	if got.Name != "Strategy Session" {
		t.Errorf("name = %q, want Strategy Session", got.Name)
	}
	if got.Slug != "strategy-session" {
		t.Errorf("slug = %q, want strategy-session derived from the new name", got.Slug)
	}
}
