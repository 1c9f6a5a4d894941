package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetflow/meetflow/internal/config"
	"github.com/meetflow/meetflow/internal/db"
)

// The simulator races many concurrent guests at the same slot of the same
// event type and reports how many bookings the API actually admitted. A
// correct run shows exactly one success per contested slot, the rest 409s.

type SimConfig struct {
	APIBaseURL  string
	Rounds      int
	Workers     int
	TargetLimit int
	PostgresDSN string
}

// Target is a public booking page: a host's username plus an event type slug.
type Target struct {
	Username string
	Slug     string
}

type slotsResponse struct {
	Date           string `json:"date"`
	AvailableSlots []struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"available_slots"`
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Simulator struct {
	config  SimConfig
	targets []Target
	client  *http.Client

	booking    OperationMetrics
	slots      OperationMetrics
	multiWins  int64 // rounds where more than one racer got a 201
	dryRounds  int64 // rounds skipped because the target had no open slots
	roundsDone int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: rounds=%d workers=%d base_url=%s", cfg.Rounds, cfg.Workers, cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	targets, err := loadTargets(ctx, pgPool, cfg.TargetLimit)
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}
	log.Printf("loaded %d booking targets", len(targets))

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config:  cfg,
		targets: targets,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Rounds:      getInt("SIM_ROUNDS", 20),
		Workers:     getInt("SIM_WORKERS", 25),
		TargetLimit: getInt("SIM_TARGET_LIMIT", 200),
		PostgresDSN: baseCfg.PostgresDSN,
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 1 {
		return fmt.Errorf("SIM_WORKERS must be > 1, contention needs racers")
	}
	if cfg.Rounds <= 0 {
		return fmt.Errorf("SIM_ROUNDS must be > 0")
	}
	return nil
}

func loadTargets(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Target, error) {
	rows, err := pool.Query(ctx, `
		SELECT u.username, et.slug
		FROM event_types et
		JOIN users u ON u.id = et.user_id
		WHERE et.is_active = TRUE
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	defer rows.Close()

	var targets []Target
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.Username, &t.Slug); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no active event types found, run the seeder first")
	}

	return targets, nil
}

func (s *Simulator) Run() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for round := 0; round < s.config.Rounds; round++ {
		target := s.targets[rng.Intn(len(s.targets))]

		slot, ok := s.findOpenSlot(target, rng)
		if !ok {
			atomic.AddInt64(&s.dryRounds, 1)
			continue
		}

		wins := s.stormSlot(target, slot)
		atomic.AddInt64(&s.roundsDone, 1)
		if wins > 1 {
			atomic.AddInt64(&s.multiWins, 1)
			log.Printf("DOUBLE BOOKING: %s/%s slot=%s admitted %d bookings",
				target.Username, target.Slug, slot.Format(time.RFC3339), wins)
		}
	}

	log.Println("simulation complete")
}

// findOpenSlot probes the availability endpoint day by day until it finds a
// date with open slots, then picks one at random.
func (s *Simulator) findOpenSlot(target Target, rng *rand.Rand) (time.Time, bool) {
	for dayOffset := 0; dayOffset < 14; dayOffset++ {
		date := time.Now().UTC().AddDate(0, 0, dayOffset).Format("2006-01-02")

		start := time.Now()
		resp, err := s.client.Get(fmt.Sprintf("%s/public/%s/%s/slots?date=%s",
			s.config.APIBaseURL, target.Username, target.Slug, date))
		latency := time.Since(start)

		if err != nil {
			s.slots.Record(latency, false, false)
			return time.Time{}, false
		}

		var body slotsResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		ok := resp.StatusCode == http.StatusOK && decodeErr == nil
		s.slots.Record(latency, ok, false)
		if !ok {
			return time.Time{}, false
		}

		if len(body.AvailableSlots) > 0 {
			return body.AvailableSlots[rng.Intn(len(body.AvailableSlots))].Start, true
		}
	}

	return time.Time{}, false
}

// stormSlot fires all workers at the same slot at once and returns how many
// of them were admitted.
func (s *Simulator) stormSlot(target Target, slot time.Time) int64 {
	var wins int64
	var wg sync.WaitGroup
	release := make(chan struct{})

	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			reqBody, _ := json.Marshal(map[string]string{
				"guest_name":  gofakeit.Name(),
				"guest_email": fmt.Sprintf("racer%d_%s", workerID, gofakeit.Email()),
				"start_time":  slot.Format(time.RFC3339),
			})

			<-release

			start := time.Now()
			resp, err := s.client.Post(
				fmt.Sprintf("%s/public/%s/%s/bookings", s.config.APIBaseURL, target.Username, target.Slug),
				"application/json", bytes.NewReader(reqBody))
			latency := time.Since(start)

			if err != nil {
				s.booking.Record(latency, false, false)
				return
			}
			defer resp.Body.Close()

			success := resp.StatusCode == http.StatusCreated
			conflict := resp.StatusCode == http.StatusConflict
			if success {
				atomic.AddInt64(&wins, 1)
			}
			s.booking.Record(latency, success, conflict)
		}(i)
	}

	close(release)
	wg.Wait()

	return atomic.LoadInt64(&wins)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CONTENTION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Rounds: %d contested, %d skipped (no open slots)\n",
		atomic.LoadInt64(&s.roundsDone), atomic.LoadInt64(&s.dryRounds))
	fmt.Printf("Workers per round: %d\n", s.config.Workers)

	multi := atomic.LoadInt64(&s.multiWins)
	if multi == 0 {
		fmt.Println("Double bookings: none (every contested slot admitted exactly one guest)")
	} else {
		fmt.Printf("Double bookings: %d ROUNDS ADMITTED MORE THAN ONE GUEST\n", multi)
	}
	fmt.Println()

	printOperationReport("Slot lookup", &s.slots)
	printOperationReport("Booking", &s.booking)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
