package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgLinkRepository struct {
	pool *pgxpool.Pool
}

func NewPgLinkRepository(pool *pgxpool.Pool) *PgLinkRepository {
	return &PgLinkRepository{pool: pool}
}

func scanLink(row pgx.Row) (*Link, error) {
	var l Link

	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.AccessToken,
		&l.RefreshToken,
		&l.TokenExpiresAt,
		&l.GoogleEmail,
		&l.CalendarID,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	return &l, nil
}

func (r *PgLinkRepository) GetLinkByUserID(ctx context.Context, userID uuid.UUID) (*Link, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, access_token, refresh_token, token_expires_at,
		       google_email, calendar_id, is_active, created_at, updated_at
		FROM calendar_links
		WHERE user_id = $1
	`, userID)
	return scanLink(row)
}

func (r *PgLinkRepository) UpsertLink(ctx context.Context, link *Link) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO calendar_links
			(id, user_id, access_token, refresh_token, token_expires_at,
			 google_email, calendar_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE calendar_links.refresh_token END,
			token_expires_at = EXCLUDED.token_expires_at,
			google_email = EXCLUDED.google_email,
			calendar_id = EXCLUDED.calendar_id,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, link.ID, link.UserID, link.AccessToken, link.RefreshToken, link.TokenExpiresAt,
		link.GoogleEmail, link.CalendarID, link.IsActive, now)
	return err
}

func (r *PgLinkRepository) UpdateLinkToken(ctx context.Context, userID uuid.UUID, accessToken string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE calendar_links
		SET access_token = $2, token_expires_at = $3, updated_at = $4
		WHERE user_id = $1
	`, userID, accessToken, expiresAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *PgLinkRepository) DeleteLink(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM calendar_links
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}
