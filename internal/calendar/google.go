package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/meetflow/meetflow/internal/config"
)

var ErrNotConfigured = errors.New("google calendar integration not configured")

// refreshLeeway forces a token refresh slightly before actual expiry so a
// request never goes out with a token that dies mid-flight.
const refreshLeeway = 5 * time.Minute

// GoogleGateway implements Gateway against the Google Calendar API. The
// OAuth client configuration is built once at construction and never
// re-read from the environment.
type GoogleGateway struct {
	links LinkRepository
	oauth *oauth2.Config
}

func NewGoogleGateway(cfg config.Config, links LinkRepository) *GoogleGateway {
	g := &GoogleGateway{links: links}

	if cfg.GoogleConfigured() {
		g.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				calendarapi.CalendarScope,
				calendarapi.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		}
	}

	return g
}

// Configured reports whether OAuth credentials were provided at startup.
func (g *GoogleGateway) Configured() bool {
	return g.oauth != nil
}

func (g *GoogleGateway) IsConnected(ctx context.Context, userID uuid.UUID) bool {
	if g.oauth == nil {
		return false
	}
	link, err := g.links.GetLinkByUserID(ctx, userID)
	return err == nil && link.IsActive
}

func (g *GoogleGateway) BusyIntervals(ctx context.Context, userID uuid.UUID, from, to time.Time, calendarIDs ...string) ([]BusyInterval, error) {
	srv, link, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := calendarIDs
	if len(ids) == 0 {
		ids = []string{link.CalendarID}
	}

	var busy []BusyInterval
	for _, calID := range ids {
		if calID == "" {
			calID = "primary"
		}

		events, err := srv.Events.List(calID).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(from.UTC().Format(time.RFC3339)).
			TimeMax(to.UTC().Format(time.RFC3339)).
			MaxResults(250).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("list events for calendar %s: %w", calID, err)
		}

		for _, item := range events.Items {
			if item.Status == "cancelled" || item.Transparency == "transparent" {
				continue
			}
			start, end, ok := eventTimes(item)
			if !ok {
				continue
			}
			busy = append(busy, BusyInterval{
				Start:      start,
				End:        end,
				Summary:    item.Summary,
				CalendarID: calID,
			})
		}
	}

	return busy, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, userID uuid.UUID, req EventRequest) (string, error) {
	srv, link, err := g.service(ctx, userID)
	if err != nil {
		return "", err
	}

	event := &calendarapi.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Start: &calendarapi.EventDateTime{
			DateTime: req.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendarapi.EventDateTime{
			DateTime: req.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Attendees: []*calendarapi.EventAttendee{
			{
				Email:          req.AttendeeEmail,
				DisplayName:    req.AttendeeName,
				ResponseStatus: "accepted",
			},
		},
		Reminders: &calendarapi.EventReminders{
			UseDefault: false,
			Overrides: []*calendarapi.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	calID := link.CalendarID
	if calID == "" {
		calID = "primary"
	}

	created, err := srv.Events.Insert(calID, event).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}

	return created.Id, nil
}

// service returns an API client authenticated as the given user, refreshing
// the stored token when it is about to expire.
func (g *GoogleGateway) service(ctx context.Context, userID uuid.UUID) (*calendarapi.Service, *Link, error) {
	if g.oauth == nil {
		return nil, nil, ErrNotConnected
	}

	link, err := g.links.GetLinkByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil, nil, ErrNotConnected
		}
		return nil, nil, fmt.Errorf("load calendar link: %w", err)
	}
	if !link.IsActive {
		return nil, nil, ErrNotConnected
	}

	tok := &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		Expiry:       link.TokenExpiresAt,
	}

	if time.Until(link.TokenExpiresAt) < refreshLeeway {
		fresh, err := g.oauth.TokenSource(ctx, tok).Token()
		if err != nil {
			return nil, nil, fmt.Errorf("refresh calendar token: %w", err)
		}
		if fresh.AccessToken != link.AccessToken {
			if err := g.links.UpdateLinkToken(ctx, userID, fresh.AccessToken, fresh.Expiry); err != nil {
				return nil, nil, fmt.Errorf("persist refreshed token: %w", err)
			}
		}
		tok = fresh
	}

	client := g.oauth.Client(ctx, tok)
	srv, err := calendarapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("create calendar service: %w", err)
	}

	return srv, link, nil
}

func eventTimes(item *calendarapi.Event) (start, end time.Time, ok bool) {
	if item.Start == nil || item.End == nil {
		return time.Time{}, time.Time{}, false
	}

	start, ok = parseEventTime(item.Start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok = parseEventTime(item.End)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func parseEventTime(edt *calendarapi.EventDateTime) (time.Time, bool) {
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
