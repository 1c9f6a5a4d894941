package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/meetflow/meetflow/internal/db"
	"github.com/meetflow/meetflow/internal/scheduling"
)

// Every seeded user gets the same password so the demo data is usable
// from the login endpoint.
const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	userIDs, err := seedUsers(context.Background(), pool, 50)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}
	if err := seedAvailabilityRules(context.Background(), pool, userIDs); err != nil {
		log.Fatalf("seed availability rules: %v", err)
	}
	if err := seedEventTypes(context.Background(), pool, userIDs); err != nil {
		log.Fatalf("seed event types: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d users", count)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	ids := make([]uuid.UUID, 0, count)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)
		email := fmt.Sprintf("%d_%s", i, strings.ToLower(gofakeit.Email()))

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, username, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`, id, name, username, email, string(hash), now)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("users seeded")
	return ids, nil
}

func seedAvailabilityRules(ctx context.Context, pool *pgxpool.Pool, userIDs []uuid.UUID) error {
	log.Printf("seeding availability rules for %d users", len(userIDs))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	for _, userID := range userIDs {
		// Weekday working hours, with a random start between 08:00 and 10:00.
		startHour := gofakeit.Number(8, 10)
		endHour := startHour + gofakeit.Number(6, 9)

		for day := 1; day <= 5; day++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO availability_rules (id, user_id, day_of_week, start_time, end_time, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
			`, uuid.New(), userID, day,
				fmt.Sprintf("%02d:00", startHour),
				fmt.Sprintf("%02d:00", endHour),
				now)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("availability rules seeded")
	return nil
}

func seedEventTypes(ctx context.Context, pool *pgxpool.Pool, userIDs []uuid.UUID) error {
	log.Printf("seeding event types for %d users", len(userIDs))

	templates := []struct {
		name     string
		duration int
	}{
		{"Quick Chat", 15},
		{"Intro Call", 30},
		{"Deep Dive", 60},
		{"Workshop", 90},
	}
	locations := []string{"Online", "Phone", "Office"}
	colors := []string{"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	for _, userID := range userIDs {
		n := gofakeit.Number(2, len(templates))
		for i := 0; i < n; i++ {
			tpl := templates[i]
			desc := gofakeit.Sentence(8)

			_, err := tx.Exec(ctx, `
				INSERT INTO event_types
					(id, user_id, name, slug, duration_minutes, description, location,
					 location_details, color, is_active, buffer_minutes,
					 min_notice_hours, max_days_in_advance, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
			`, uuid.New(), userID, tpl.name, scheduling.Slugify(tpl.name),
				tpl.duration, &desc,
				locations[gofakeit.Number(0, len(locations)-1)], nil,
				colors[gofakeit.Number(0, len(colors)-1)], true,
				gofakeit.Number(0, 2)*15,
				gofakeit.Number(0, 24),
				gofakeit.Number(14, 60),
				now)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("event types seeded")
	return nil
}
