package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/calendar"
)

// mockRepository implements Repository with per-method function fields, so
// each test wires exactly the calls it expects. An unwired call panics.
type mockRepository struct {
	CreateUserFn        func(ctx context.Context, u *User) error
	GetUserByIDFn       func(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByUsernameFn func(ctx context.Context, username string) (*User, error)
	GetUserByEmailFn    func(ctx context.Context, email string) (*User, error)

	CreateEventTypeFn          func(ctx context.Context, et *EventType) error
	ListEventTypesFn           func(ctx context.Context, userID uuid.UUID) ([]EventType, error)
	GetEventTypeFn             func(ctx context.Context, id, userID uuid.UUID) (*EventType, error)
	GetActiveEventTypeBySlugFn func(ctx context.Context, userID uuid.UUID, slug string) (*EventType, error)
	SlugTakenFn                func(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error)
	UpdateEventTypeFn          func(ctx context.Context, et *EventType) error
	DeleteEventTypeFn          func(ctx context.Context, id, userID uuid.UUID) error

	CreateRuleFn      func(ctx context.Context, r *AvailabilityRule) error
	ListRulesFn       func(ctx context.Context, userID uuid.UUID) ([]AvailabilityRule, error)
	ListRulesForDayFn func(ctx context.Context, userID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error)
	DeleteRuleFn      func(ctx context.Context, id, userID uuid.UUID) error
	ReplaceRulesFn    func(ctx context.Context, userID uuid.UUID, rules []AvailabilityRule) error

	CreateBookingFn           func(ctx context.Context, b *Booking) error
	GetBookingOwnedFn         func(ctx context.Context, id, ownerID uuid.UUID) (*Booking, error)
	ListBookingsFn            func(ctx context.Context, ownerID uuid.UUID, filter string, now time.Time) ([]BookingDetail, error)
	HasOverlappingBookingFn   func(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error)
	MarkBookingCancelledFn    func(ctx context.Context, id uuid.UUID, reason *string, at time.Time) error
	SetBookingGoogleEventIDFn func(ctx context.Context, id uuid.UUID, googleEventID string) error
	CompletePastBookingsFn    func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockRepository) CreateUser(ctx context.Context, u *User) error {
	if m.CreateUserFn == nil {
		panic("unexpected call: CreateUser")
	}
	return m.CreateUserFn(ctx, u)
}

func (m *mockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if m.GetUserByIDFn == nil {
		panic("unexpected call: GetUserByID")
	}
	return m.GetUserByIDFn(ctx, id)
}

func (m *mockRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	if m.GetUserByUsernameFn == nil {
		panic("unexpected call: GetUserByUsername")
	}
	return m.GetUserByUsernameFn(ctx, username)
}

func (m *mockRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if m.GetUserByEmailFn == nil {
		panic("unexpected call: GetUserByEmail")
	}
	return m.GetUserByEmailFn(ctx, email)
}

func (m *mockRepository) CreateEventType(ctx context.Context, et *EventType) error {
	if m.CreateEventTypeFn == nil {
		panic("unexpected call: CreateEventType")
	}
	return m.CreateEventTypeFn(ctx, et)
}

func (m *mockRepository) ListEventTypes(ctx context.Context, userID uuid.UUID) ([]EventType, error) {
	if m.ListEventTypesFn == nil {
		panic("unexpected call: ListEventTypes")
	}
	return m.ListEventTypesFn(ctx, userID)
}

func (m *mockRepository) GetEventType(ctx context.Context, id, userID uuid.UUID) (*EventType, error) {
	if m.GetEventTypeFn == nil {
		panic("unexpected call: GetEventType")
	}
	return m.GetEventTypeFn(ctx, id, userID)
}

func (m *mockRepository) GetActiveEventTypeBySlug(ctx context.Context, userID uuid.UUID, slug string) (*EventType, error) {
	if m.GetActiveEventTypeBySlugFn == nil {
		panic("unexpected call: GetActiveEventTypeBySlug")
	}
	return m.GetActiveEventTypeBySlugFn(ctx, userID, slug)
}

func (m *mockRepository) SlugTaken(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	if m.SlugTakenFn == nil {
		panic("unexpected call: SlugTaken")
	}
	return m.SlugTakenFn(ctx, userID, slug, excludeID)
}

func (m *mockRepository) UpdateEventType(ctx context.Context, et *EventType) error {
	if m.UpdateEventTypeFn == nil {
		panic("unexpected call: UpdateEventType")
	}
	return m.UpdateEventTypeFn(ctx, et)
}

func (m *mockRepository) DeleteEventType(ctx context.Context, id, userID uuid.UUID) error {
	if m.DeleteEventTypeFn == nil {
		panic("unexpected call: DeleteEventType")
	}
	return m.DeleteEventTypeFn(ctx, id, userID)
}

func (m *mockRepository) CreateRule(ctx context.Context, r *AvailabilityRule) error {
	if m.CreateRuleFn == nil {
		panic("unexpected call: CreateRule")
	}
	return m.CreateRuleFn(ctx, r)
}

func (m *mockRepository) ListRules(ctx context.Context, userID uuid.UUID) ([]AvailabilityRule, error) {
	if m.ListRulesFn == nil {
		panic("unexpected call: ListRules")
	}
	return m.ListRulesFn(ctx, userID)
}

func (m *mockRepository) ListRulesForDay(ctx context.Context, userID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error) {
	if m.ListRulesForDayFn == nil {
		panic("unexpected call: ListRulesForDay")
	}
	return m.ListRulesForDayFn(ctx, userID, dayOfWeek)
}

func (m *mockRepository) DeleteRule(ctx context.Context, id, userID uuid.UUID) error {
	if m.DeleteRuleFn == nil {
		panic("unexpected call: DeleteRule")
	}
	return m.DeleteRuleFn(ctx, id, userID)
}

func (m *mockRepository) ReplaceRules(ctx context.Context, userID uuid.UUID, rules []AvailabilityRule) error {
	if m.ReplaceRulesFn == nil {
		panic("unexpected call: ReplaceRules")
	}
	return m.ReplaceRulesFn(ctx, userID, rules)
}

func (m *mockRepository) CreateBooking(ctx context.Context, b *Booking) error {
	if m.CreateBookingFn == nil {
		panic("unexpected call: CreateBooking")
	}
	return m.CreateBookingFn(ctx, b)
}

func (m *mockRepository) GetBookingOwned(ctx context.Context, id, ownerID uuid.UUID) (*Booking, error) {
	if m.GetBookingOwnedFn == nil {
		panic("unexpected call: GetBookingOwned")
	}
	return m.GetBookingOwnedFn(ctx, id, ownerID)
}

func (m *mockRepository) ListBookings(ctx context.Context, ownerID uuid.UUID, filter string, now time.Time) ([]BookingDetail, error) {
	if m.ListBookingsFn == nil {
		panic("unexpected call: ListBookings")
	}
	return m.ListBookingsFn(ctx, ownerID, filter, now)
}

func (m *mockRepository) HasOverlappingBooking(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	if m.HasOverlappingBookingFn == nil {
		panic("unexpected call: HasOverlappingBooking")
	}
	return m.HasOverlappingBookingFn(ctx, ownerID, start, end)
}

func (m *mockRepository) MarkBookingCancelled(ctx context.Context, id uuid.UUID, reason *string, at time.Time) error {
	if m.MarkBookingCancelledFn == nil {
		panic("unexpected call: MarkBookingCancelled")
	}
	return m.MarkBookingCancelledFn(ctx, id, reason, at)
}

func (m *mockRepository) SetBookingGoogleEventID(ctx context.Context, id uuid.UUID, googleEventID string) error {
	if m.SetBookingGoogleEventIDFn == nil {
		panic("unexpected call: SetBookingGoogleEventID")
	}
	return m.SetBookingGoogleEventIDFn(ctx, id, googleEventID)
}

func (m *mockRepository) CompletePastBookings(ctx context.Context, now time.Time) (int64, error) {
	if m.CompletePastBookingsFn == nil {
		panic("unexpected call: CompletePastBookings")
	}
	return m.CompletePastBookingsFn(ctx, now)
}

// fakeGateway is a scripted calendar gateway.
type fakeGateway struct {
	connected bool
	busy      []calendar.BusyInterval
	busyErr   error

	createID  string
	createErr error

	mu      sync.Mutex
	created []calendar.EventRequest
}

func (g *fakeGateway) IsConnected(ctx context.Context, userID uuid.UUID) bool {
	return g.connected
}

func (g *fakeGateway) BusyIntervals(ctx context.Context, userID uuid.UUID, from, to time.Time, calendarIDs ...string) ([]calendar.BusyInterval, error) {
	if g.busyErr != nil {
		return nil, g.busyErr
	}
	if !g.connected {
		return nil, calendar.ErrNotConnected
	}
	return g.busy, nil
}

func (g *fakeGateway) CreateEvent(ctx context.Context, userID uuid.UUID, req calendar.EventRequest) (string, error) {
	g.mu.Lock()
	g.created = append(g.created, req)
	g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	return g.createID, nil
}

func (g *fakeGateway) createdEvents() []calendar.EventRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]calendar.EventRequest, len(g.created))
	copy(out, g.created)
	return out
}

// memLocker serializes callers per slot key with plain mutexes, mirroring
// what the Redis locker guarantees across processes.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemLocker() *memLocker {
	return &memLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *memLocker) WithSlotLock(ctx context.Context, eventTypeID uuid.UUID, slotStart time.Time, fn func(ctx context.Context) error) error {
	key := eventTypeID.String() + "/" + slotStart.UTC().Format(time.RFC3339)

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
