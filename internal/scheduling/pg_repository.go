package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func scanEventType(row pgx.Row) (*EventType, error) {
	var et EventType

	err := row.Scan(
		&et.ID,
		&et.UserID,
		&et.Name,
		&et.Slug,
		&et.DurationMinutes,
		&et.Description,
		&et.Location,
		&et.LocationDetails,
		&et.Color,
		&et.IsActive,
		&et.BufferMinutes,
		&et.MinNoticeHours,
		&et.MaxDaysInAdvance,
		&et.CreatedAt,
		&et.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventTypeNotFound
		}
		return nil, err
	}

	return &et, nil
}

const eventTypeColumns = `id, user_id, name, slug, duration_minutes, description,
	location, location_details, color, is_active, buffer_minutes,
	min_notice_hours, max_days_in_advance, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.EventTypeID,
		&b.GuestName,
		&b.GuestEmail,
		&b.GuestPhone,
		&b.Notes,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.GoogleEventID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &b, nil
}

// Users

func (r *PgRepository) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.Name, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`, username)
	return scanUser(row)
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)
	return scanUser(row)
}

// Event types

func (r *PgRepository) CreateEventType(ctx context.Context, et *EventType) error {
	if et.ID == uuid.Nil {
		et.ID = uuid.New()
	}
	now := time.Now().UTC()
	et.CreatedAt = now
	et.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_types
			(id, user_id, name, slug, duration_minutes, description, location,
			 location_details, color, is_active, buffer_minutes,
			 min_notice_hours, max_days_in_advance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, et.ID, et.UserID, et.Name, et.Slug, et.DurationMinutes, et.Description,
		et.Location, et.LocationDetails, et.Color, et.IsActive, et.BufferMinutes,
		et.MinNoticeHours, et.MaxDaysInAdvance, et.CreatedAt, et.UpdatedAt)
	return err
}

func (r *PgRepository) ListEventTypes(ctx context.Context, userID uuid.UUID) ([]EventType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventType
	for rows.Next() {
		et, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *et)
	}
	return out, rows.Err()
}

func (r *PgRepository) GetEventType(ctx context.Context, id, userID uuid.UUID) (*EventType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	return scanEventType(row)
}

func (r *PgRepository) GetActiveEventTypeBySlug(ctx context.Context, userID uuid.UUID, slug string) (*EventType, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventTypeColumns+`
		FROM event_types
		WHERE user_id = $1 AND LOWER(slug) = LOWER($2) AND is_active
	`, userID, slug)
	return scanEventType(row)
}

func (r *PgRepository) SlugTaken(ctx context.Context, userID uuid.UUID, slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM event_types
			WHERE user_id = $1 AND LOWER(slug) = LOWER($2) AND id <> $3
		)
	`, userID, slug, excludeID).Scan(&taken)
	return taken, err
}

func (r *PgRepository) UpdateEventType(ctx context.Context, et *EventType) error {
	et.UpdatedAt = time.Now().UTC()

	tag, err := r.pool.Exec(ctx, `
		UPDATE event_types
		SET name = $3, slug = $4, duration_minutes = $5, description = $6,
		    location = $7, location_details = $8, color = $9, is_active = $10,
		    buffer_minutes = $11, min_notice_hours = $12,
		    max_days_in_advance = $13, updated_at = $14
		WHERE id = $1 AND user_id = $2
	`, et.ID, et.UserID, et.Name, et.Slug, et.DurationMinutes, et.Description,
		et.Location, et.LocationDetails, et.Color, et.IsActive, et.BufferMinutes,
		et.MinNoticeHours, et.MaxDaysInAdvance, et.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventTypeNotFound
	}
	return nil
}

func (r *PgRepository) DeleteEventType(ctx context.Context, id, userID uuid.UUID) error {
	// bookings go with it via ON DELETE CASCADE
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM event_types
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventTypeNotFound
	}
	return nil
}

// Availability rules

func (r *PgRepository) CreateRule(ctx context.Context, rule *AvailabilityRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_rules (id, user_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rule.ID, rule.UserID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.CreatedAt, rule.UpdatedAt)
	return err
}

func (r *PgRepository) ListRules(ctx context.Context, userID uuid.UUID) ([]AvailabilityRule, error) {
	return r.queryRules(ctx, `
		SELECT id, user_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM availability_rules
		WHERE user_id = $1
		ORDER BY day_of_week, start_time
	`, userID)
}

func (r *PgRepository) ListRulesForDay(ctx context.Context, userID uuid.UUID, dayOfWeek int) ([]AvailabilityRule, error) {
	return r.queryRules(ctx, `
		SELECT id, user_id, day_of_week, start_time, end_time, created_at, updated_at
		FROM availability_rules
		WHERE user_id = $1 AND day_of_week = $2
		ORDER BY start_time
	`, userID, dayOfWeek)
}

func (r *PgRepository) queryRules(ctx context.Context, query string, args ...any) ([]AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityRule
	for rows.Next() {
		var rule AvailabilityRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.DayOfWeek,
			&rule.StartTime, &rule.EndTime, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *PgRepository) DeleteRule(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func (r *PgRepository) ReplaceRules(ctx context.Context, userID uuid.UUID, rules []AvailabilityRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace rules: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete existing rules: %w", err)
	}

	now := time.Now().UTC()
	for i := range rules {
		rule := &rules[i]
		if rule.ID == uuid.Nil {
			rule.ID = uuid.New()
		}
		rule.UserID = userID
		rule.CreatedAt = now
		rule.UpdatedAt = now

		if _, err := tx.Exec(ctx, `
			INSERT INTO availability_rules (id, user_id, day_of_week, start_time, end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, rule.ID, rule.UserID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.CreatedAt, rule.UpdatedAt); err != nil {
			return fmt.Errorf("insert rule: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Bookings

func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings
			(id, event_type_id, guest_name, guest_email, guest_phone, notes,
			 start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, b.ID, b.EventTypeID, b.GuestName, b.GuestEmail, b.GuestPhone, b.Notes,
		b.StartTime, b.EndTime, b.Status, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *PgRepository) GetBookingOwned(ctx context.Context, id, ownerID uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT b.id, b.event_type_id, b.guest_name, b.guest_email, b.guest_phone,
		       b.notes, b.start_time, b.end_time, b.status, b.cancellation_reason,
		       b.cancelled_at, b.google_event_id, b.created_at, b.updated_at
		FROM bookings b
		JOIN event_types et ON et.id = b.event_type_id
		WHERE b.id = $1 AND et.user_id = $2
	`, id, ownerID)
	return scanBooking(row)
}

func (r *PgRepository) ListBookings(ctx context.Context, ownerID uuid.UUID, filter string, now time.Time) ([]BookingDetail, error) {
	query := `
		SELECT b.id, b.event_type_id, b.guest_name, b.guest_email, b.guest_phone,
		       b.notes, b.start_time, b.end_time, b.status, b.cancellation_reason,
		       b.cancelled_at, b.google_event_id, b.created_at, b.updated_at,
		       et.id, et.user_id, et.name, et.slug, et.duration_minutes,
		       et.description, et.location, et.location_details, et.color,
		       et.is_active, et.buffer_minutes, et.min_notice_hours,
		       et.max_days_in_advance, et.created_at, et.updated_at
		FROM bookings b
		JOIN event_types et ON et.id = b.event_type_id
		WHERE et.user_id = $1`

	args := []any{ownerID}
	switch filter {
	case "upcoming":
		query += ` AND b.status <> 'Cancelled' AND b.start_time >= $2 ORDER BY b.start_time`
		args = append(args, now)
	case "past":
		query += ` AND b.end_time < $2 ORDER BY b.start_time DESC`
		args = append(args, now)
	case "cancelled":
		query += ` AND b.status = 'Cancelled' ORDER BY b.start_time DESC`
	default:
		query += ` ORDER BY b.start_time DESC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookingDetail
	for rows.Next() {
		var d BookingDetail
		var et EventType
		if err := rows.Scan(
			&d.ID, &d.EventTypeID, &d.GuestName, &d.GuestEmail, &d.GuestPhone,
			&d.Notes, &d.StartTime, &d.EndTime, &d.Status, &d.CancellationReason,
			&d.CancelledAt, &d.GoogleEventID, &d.CreatedAt, &d.UpdatedAt,
			&et.ID, &et.UserID, &et.Name, &et.Slug, &et.DurationMinutes,
			&et.Description, &et.Location, &et.LocationDetails, &et.Color,
			&et.IsActive, &et.BufferMinutes, &et.MinNoticeHours,
			&et.MaxDaysInAdvance, &et.CreatedAt, &et.UpdatedAt,
		); err != nil {
			return nil, err
		}
		d.EventType = &et
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PgRepository) HasOverlappingBooking(ctx context.Context, ownerID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM bookings b
			JOIN event_types et ON et.id = b.event_type_id
			WHERE et.user_id = $1
			  AND b.status <> 'Cancelled'
			  AND b.start_time < $3
			  AND b.end_time > $2
		)
	`, ownerID, start, end).Scan(&exists)
	return exists, err
}

func (r *PgRepository) MarkBookingCancelled(ctx context.Context, id uuid.UUID, reason *string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = 'Cancelled', cancellation_reason = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1
	`, id, reason, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PgRepository) SetBookingGoogleEventID(ctx context.Context, id uuid.UUID, googleEventID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET google_event_id = $2, updated_at = $3
		WHERE id = $1
	`, id, googleEventID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *PgRepository) CompletePastBookings(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = 'Completed', updated_at = $1
		WHERE status = 'Confirmed' AND end_time < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
