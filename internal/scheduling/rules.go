package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RuleInput is one requested weekly window. DayOfWeek runs Monday=1 ..
// Sunday=7; times are "HH:MM".
type RuleInput struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// RuleService manages a user's recurring weekly availability windows.
type RuleService struct {
	repo Repository
}

func NewRuleService(repo Repository) *RuleService {
	return &RuleService{repo: repo}
}

// CreateRule adds one window after checking it against the user's existing
// windows on the same day. Windows on one day must not overlap.
func (s *RuleService) CreateRule(ctx context.Context, userID uuid.UUID, in RuleInput) (*AvailabilityRule, error) {
	start, end, err := validateRuleInput(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListRulesForDay(ctx, userID, in.DayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	for _, other := range existing {
		otherStart, otherEnd, err := parsedRuleBounds(other)
		if err != nil {
			return nil, err
		}
		if start.Before(otherEnd) && end.After(otherStart) {
			return nil, validationf("window %s-%s overlaps existing availability on %s",
				in.StartTime, in.EndTime, DayName(in.DayOfWeek%7))
		}
	}

	rule := &AvailabilityRule{
		UserID:    userID,
		DayOfWeek: in.DayOfWeek,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

func (s *RuleService) ListRules(ctx context.Context, userID uuid.UUID) ([]AvailabilityRule, error) {
	return s.repo.ListRules(ctx, userID)
}

func (s *RuleService) DeleteRule(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.DeleteRule(ctx, id, userID)
}

// ReplaceRules swaps the user's entire weekly schedule for the given set.
// All inputs are validated up front; the swap itself is transactional, so a
// rejected input leaves the previous schedule untouched and concurrent
// readers never observe a half-applied set.
func (s *RuleService) ReplaceRules(ctx context.Context, userID uuid.UUID, inputs []RuleInput) ([]AvailabilityRule, error) {
	type bounds struct {
		day        int
		start, end time.Time
	}
	seen := make([]bounds, 0, len(inputs))
	rules := make([]AvailabilityRule, 0, len(inputs))

	for _, in := range inputs {
		start, end, err := validateRuleInput(in)
		if err != nil {
			return nil, err
		}
		for _, other := range seen {
			if other.day == in.DayOfWeek && start.Before(other.end) && end.After(other.start) {
				return nil, validationf("windows overlap on %s", DayName(in.DayOfWeek%7))
			}
		}
		seen = append(seen, bounds{day: in.DayOfWeek, start: start, end: end})
		rules = append(rules, AvailabilityRule{
			UserID:    userID,
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
		})
	}

	if err := s.repo.ReplaceRules(ctx, userID, rules); err != nil {
		return nil, fmt.Errorf("replace rules: %w", err)
	}
	return rules, nil
}

func validateRuleInput(in RuleInput) (start, end time.Time, err error) {
	if in.DayOfWeek < 1 || in.DayOfWeek > 7 {
		return time.Time{}, time.Time{}, validationf("day_of_week must be 1 (Monday) through 7 (Sunday)")
	}
	start, err = parseHHMM(in.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("invalid start_time %q", in.StartTime)
	}
	end, err = parseHHMM(in.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("invalid end_time %q", in.EndTime)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, validationf("start_time must be before end_time")
	}
	return start, end, nil
}

func parsedRuleBounds(rule AvailabilityRule) (start, end time.Time, err error) {
	start, err = parseHHMM(rule.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	end, err = parseHHMM(rule.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	return start, end, nil
}
