package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrLinkNotFound = errors.New("calendar link not found")

// Link is the stored connection between a user and their Google calendar.
// At most one per user.
type Link struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
	GoogleEmail    string
	CalendarID     string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LinkRepository persists calendar links and their rotating tokens.
type LinkRepository interface {
	GetLinkByUserID(ctx context.Context, userID uuid.UUID) (*Link, error)
	UpsertLink(ctx context.Context, link *Link) error
	UpdateLinkToken(ctx context.Context, userID uuid.UUID, accessToken string, expiresAt time.Time) error
	DeleteLink(ctx context.Context, userID uuid.UUID) error
}
