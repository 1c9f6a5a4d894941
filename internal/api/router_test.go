package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meetflow/meetflow/internal/auth"
	"github.com/meetflow/meetflow/internal/calendar"
	"github.com/meetflow/meetflow/internal/config"
	redisclient "github.com/meetflow/meetflow/internal/redis"
	"github.com/meetflow/meetflow/internal/scheduling"
)

// stubRepo fakes the slice of the repository these routes touch; anything
// unimplemented panics through the embedded nil interface.
type stubRepo struct {
	scheduling.Repository

	user      *scheduling.User
	eventType *scheduling.EventType
	rules     []scheduling.AvailabilityRule

	bookings []scheduling.Booking
}

func (r *stubRepo) GetUserByUsername(ctx context.Context, username string) (*scheduling.User, error) {
	if r.user != nil && strings.EqualFold(username, r.user.Username) {
		return r.user, nil
	}
	return nil, scheduling.ErrUserNotFound
}

func (r *stubRepo) GetUserByEmail(ctx context.Context, email string) (*scheduling.User, error) {
	return nil, scheduling.ErrUserNotFound
}

func (r *stubRepo) CreateUser(ctx context.Context, u *scheduling.User) error {
	u.ID = uuid.New()
	r.user = u
	return nil
}

func (r *stubRepo) GetActiveEventTypeBySlug(ctx context.Context, userID uuid.UUID, slug string) (*scheduling.EventType, error) {
	if r.eventType != nil && r.eventType.UserID == userID && slug == r.eventType.Slug {
		return r.eventType, nil
	}
	return nil, scheduling.ErrEventTypeNotFound
}

func (r *stubRepo) ListRulesForDay(ctx context.Context, userID uuid.UUID, dayOfWeek int) ([]scheduling.AvailabilityRule, error) {
	var out []scheduling.AvailabilityRule
	for _, rule := range r.rules {
		if rule.DayOfWeek == dayOfWeek {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r *stubRepo) ListEventTypes(ctx context.Context, userID uuid.UUID) ([]scheduling.EventType, error) {
	if r.eventType == nil {
		return nil, nil
	}
	return []scheduling.EventType{*r.eventType}, nil
}

func (r *stubRepo) HasOverlappingBooking(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	for _, b := range r.bookings {
		if b.Status != scheduling.StatusCancelled && b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) CreateBooking(ctx context.Context, b *scheduling.Booking) error {
	b.ID = uuid.New()
	r.bookings = append(r.bookings, *b)
	return nil
}

// disconnectedGateway stands in for a user without a calendar link.
type disconnectedGateway struct{}

func (disconnectedGateway) IsConnected(ctx context.Context, userID uuid.UUID) bool { return false }
func (disconnectedGateway) BusyIntervals(ctx context.Context, userID uuid.UUID, from, to time.Time, calendarIDs ...string) ([]calendar.BusyInterval, error) {
	return nil, calendar.ErrNotConnected
}
func (disconnectedGateway) CreateEvent(ctx context.Context, userID uuid.UUID, req calendar.EventRequest) (string, error) {
	return "", calendar.ErrNotConnected
}

// serialLocker runs the critical section inline; router tests do not race.
type serialLocker struct{}

func (serialLocker) WithSlotLock(ctx context.Context, eventTypeID uuid.UUID, slotStart time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ redisclient.Locker = serialLocker{}

func newTestRouter(repo *stubRepo) (http.Handler, *auth.Service) {
	gw := disconnectedGateway{}
	authSvc := auth.NewService(repo, "test-secret", time.Hour)

	return NewRouter(RouterConfig{
		Resolver:   scheduling.NewResolver(repo, gw, time.Second),
		Bookings:   scheduling.NewBookingService(repo, gw, serialLocker{}, time.Second),
		Rules:      scheduling.NewRuleService(repo),
		EventTypes: scheduling.NewEventTypeService(repo),
		Auth:       authSvc,
		Google:     calendar.NewGoogleGateway(config.Config{}, nil),
		Env:        "test",
		Version:    "test",
	}), authSvc
}

// seededRepo returns a host with one active event type and a rule covering
// every weekday, so near-future dates always have slots.
func seededRepo() *stubRepo {
	userID := uuid.New()
	repo := &stubRepo{
		user: &scheduling.User{ID: userID, Name: "Ada Host", Username: "ada", Email: "ada@example.com"},
		eventType: &scheduling.EventType{
			ID:               uuid.New(),
			UserID:           userID,
			Name:             "Intro Call",
			Slug:             "intro-call",
			DurationMinutes:  30,
			Location:         "Online",
			Color:            "#3b82f6",
			IsActive:         true,
			MaxDaysInAdvance: 30,
		},
	}
	for day := 1; day <= 7; day++ {
		repo.rules = append(repo.rules, scheduling.AvailabilityRule{
			ID: uuid.New(), UserID: userID, DayOfWeek: day, StartTime: "09:00", EndTime: "17:00",
		})
	}
	return repo
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLivenessEndpoint(t *testing.T) {
	router, _ := newTestRouter(seededRepo())

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp LivenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestSlotsEndpoint(t *testing.T) {
	router, _ := newTestRouter(seededRepo())
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	rec := doRequest(t, router, http.MethodGet, "/public/ada/intro-call/slots?date="+tomorrow, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp scheduling.DayAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Date != tomorrow {
		t.Errorf("date = %q, want %q", resp.Date, tomorrow)
	}
	if len(resp.AvailableSlots) == 0 {
		t.Error("expected open slots for a fully available day")
	}
}

func TestSlotsEndpointBadDate(t *testing.T) {
	router, _ := newTestRouter(seededRepo())

	for _, path := range []string{
		"/public/ada/intro-call/slots",
		"/public/ada/intro-call/slots?date=tomorrow",
		"/public/ada/intro-call/slots?date=2026-13-40",
	} {
		rec := doRequest(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestSlotsEndpointUnknownPage(t *testing.T) {
	router, _ := newTestRouter(seededRepo())
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	rec := doRequest(t, router, http.MethodGet, "/public/nobody/intro-call/slots?date="+tomorrow, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user: status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/public/ada/missing/slots?date="+tomorrow, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown slug: status = %d, want 404", rec.Code)
	}
}

func TestPublicBookingEndpoint(t *testing.T) {
	repo := seededRepo()
	router, _ := newTestRouter(repo)

	start := time.Now().UTC().AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(10 * time.Hour)
	body := fmt.Sprintf(`{"guest_name":"Grace","guest_email":"grace@example.com","start_time":%q}`,
		start.Format(time.RFC3339))

	rec := doRequest(t, router, http.MethodPost, "/public/ada/intro-call/bookings", body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var conf scheduling.BookingConfirmation
	if err := json.Unmarshal(rec.Body.Bytes(), &conf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conf.Status != scheduling.StatusConfirmed {
		t.Errorf("status = %q, want Confirmed", conf.Status)
	}
	if len(repo.bookings) != 1 {
		t.Errorf("%d bookings persisted, want 1", len(repo.bookings))
	}

	// The same slot again now conflicts.
	rec = doRequest(t, router, http.MethodPost, "/public/ada/intro-call/bookings", body, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("rebooking the slot: status = %d, want 409", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Error != "slot_unavailable" {
		t.Errorf("error code = %q, want slot_unavailable", errResp.Error)
	}
}

func TestPublicBookingEndpointRejectsBadBody(t *testing.T) {
	router, _ := newTestRouter(seededRepo())

	for name, body := range map[string]string{
		"not json":      "{",
		"missing name":  `{"guest_email":"g@example.com","start_time":"2026-03-09T09:00:00Z"}`,
		"bad email":     `{"guest_name":"G","guest_email":"nope","start_time":"2026-03-09T09:00:00Z"}`,
		"missing start": `{"guest_name":"G","guest_email":"g@example.com"}`,
	} {
		rec := doRequest(t, router, http.MethodPost, "/public/ada/intro-call/bookings", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestOwnerRoutesRequireAuth(t *testing.T) {
	repo := seededRepo()
	router, authSvc := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/api/event-types", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/event-types", "", map[string]string{
		"Authorization": "Bearer garbage",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}

	// A real token passes the middleware.
	_, token, err := authSvc.Register(context.Background(), "Bea", "bea", "bea@example.com", "password1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	rec = doRequest(t, router, http.MethodGet, "/api/event-types", "", map[string]string{
		"Authorization": "Bearer " + token,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{scheduling.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{scheduling.ErrEventTypeNotFound, http.StatusNotFound, "not_found"},
		{scheduling.ErrBookingNotFound, http.StatusNotFound, "not_found"},
		{&scheduling.ValidationError{Message: "nope"}, http.StatusBadRequest, "validation_failed"},
		{scheduling.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
		{scheduling.ErrSlotBeingBooked, http.StatusConflict, "slot_being_booked"},
		{redisclient.ErrLockNotAcquired, http.StatusConflict, "slot_being_booked"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{calendar.ErrNotConfigured, http.StatusServiceUnavailable, "calendar_not_configured"},
		{errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		handleServiceError(rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.wantStatus)
		}
		var resp ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error != tc.wantCode {
			t.Errorf("%v: code = %q, want %q", tc.err, resp.Error, tc.wantCode)
		}
	}
}
