package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// LinkStatus is what the integration endpoints expose about a user's
// calendar connection. Tokens never leave this package.
type LinkStatus struct {
	IsConnected bool       `json:"is_connected"`
	GoogleEmail string     `json:"google_email,omitempty"`
	CalendarID  string     `json:"calendar_id,omitempty"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
}

// AuthCodeURL builds the Google consent URL for a user. The user id rides in
// the state parameter and is verified on callback.
func (g *GoogleGateway) AuthCodeURL(userID uuid.UUID) (string, error) {
	if g.oauth == nil {
		return "", ErrNotConfigured
	}
	state := fmt.Sprintf("%s:%d", userID.String(), time.Now().Unix())
	url := g.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return url, nil
}

// HandleCallback exchanges the authorization code, discovers the user's
// primary calendar and stores the link.
func (g *GoogleGateway) HandleCallback(ctx context.Context, userID uuid.UUID, code string) (*LinkStatus, error) {
	if g.oauth == nil {
		return nil, ErrNotConfigured
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	googleEmail := ""
	calendarID := "primary"

	client := g.oauth.Client(ctx, tok)
	srv, err := calendarapi.NewService(ctx, option.WithHTTPClient(client))
	if err == nil {
		if list, listErr := srv.CalendarList.List().Context(ctx).Do(); listErr == nil {
			for _, item := range list.Items {
				if item.Primary {
					googleEmail = item.Id
					calendarID = item.Id
					break
				}
			}
		}
	}

	link := &Link{
		UserID:         userID,
		AccessToken:    tok.AccessToken,
		RefreshToken:   tok.RefreshToken,
		TokenExpiresAt: tok.Expiry,
		GoogleEmail:    googleEmail,
		CalendarID:     calendarID,
		IsActive:       true,
	}
	if err := g.links.UpsertLink(ctx, link); err != nil {
		return nil, fmt.Errorf("save calendar link: %w", err)
	}

	now := time.Now().UTC()
	return &LinkStatus{
		IsConnected: true,
		GoogleEmail: googleEmail,
		CalendarID:  calendarID,
		ConnectedAt: &now,
	}, nil
}

func (g *GoogleGateway) Status(ctx context.Context, userID uuid.UUID) (*LinkStatus, error) {
	link, err := g.links.GetLinkByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return &LinkStatus{IsConnected: false}, nil
		}
		return nil, err
	}
	if !link.IsActive {
		return &LinkStatus{IsConnected: false}, nil
	}

	connectedAt := link.CreatedAt
	return &LinkStatus{
		IsConnected: true,
		GoogleEmail: link.GoogleEmail,
		CalendarID:  link.CalendarID,
		ConnectedAt: &connectedAt,
	}, nil
}

func (g *GoogleGateway) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return g.links.DeleteLink(ctx, userID)
}
