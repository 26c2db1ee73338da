package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/domain/nutrition"
	"github.com/mamadbah2/caltrack/internal/service/persistence"
)

// Choice selects which version of an over-budget food gets logged.
type Choice string

const (
	ChoiceSuggested Choice = "suggested"
	ChoiceFull      Choice = "full"
)

// ErrInvalidChoice is returned for a choice other than suggested or full.
var ErrInvalidChoice = errors.New("choice must be \"suggested\" or \"full\"")

// ErrEntryNotFound is returned when deleting a timestamp that is not in the ledger.
var ErrEntryNotFound = errors.New("entry not found")

// Dashboard is the read model behind the main screen.
type Dashboard struct {
	Profile          models.Profile           `json:"profile"`
	Goal             int                      `json:"goal"`
	Totals           models.Totals            `json:"totals"`
	Remaining        int                      `json:"remaining"`
	RemainingClamped int                      `json:"remainingClamped"`
	ProgressPercent  float64                  `json:"progressPercent"`
	Macros           nutrition.MacroBreakdown `json:"macros"`
	Entries          []models.FoodEntry       `json:"entries"`
}

// ProfileView pairs the stored profile with its derived goal.
type ProfileView struct {
	Profile models.Profile `json:"profile"`
	Goal    int            `json:"goal"`
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs every user action as load, mutate, save.
type Service struct {
	gateway *persistence.Gateway
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger

	mu sync.Mutex
}

// NewService creates the tracker. Calendar days are evaluated in loc.
func NewService(gateway *persistence.Gateway, loc *time.Location, logger *zap.Logger, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		gateway: gateway,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location is the timezone used for calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Onboard validates and stores the profile, replacing any previous one.
func (s *Service) Onboard(ctx context.Context, p models.Profile) (ProfileView, error) {
	if err := p.Validate(); err != nil {
		return ProfileView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gateway.SaveProfile(ctx, p); err != nil {
		return ProfileView{}, err
	}

	goal := nutrition.ComputeDailyGoal(p)
	s.logger.Info("profile saved", zap.String("name", p.Name), zap.Int("daily_goal", goal))
	return ProfileView{Profile: p, Goal: goal}, nil
}

// Profile returns the stored profile, or models.ErrProfileNotFound.
func (s *Service) Profile(ctx context.Context) (ProfileView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateway.LoadProfile(ctx)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{Profile: p, Goal: nutrition.ComputeDailyGoal(p)}, nil
}

// Dashboard summarizes today against the daily goal.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ledger, err := s.load(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.clock()
	goal := nutrition.ComputeDailyGoal(p)
	today := ledger.Today(now)
	totals := nutrition.Sum(today)
	remaining := goal - totals.Calories

	return Dashboard{
		Profile:          p,
		Goal:             goal,
		Totals:           totals,
		Remaining:        remaining,
		RemainingClamped: max(remaining, 0),
		ProgressPercent:  nutrition.GoalProgress(totals.Calories, goal),
		Macros:           ledger.MacroBreakdown(goal, now),
		Entries:          today,
	}, nil
}

// Evaluate returns the advice for a candidate without logging it.
func (s *Service) Evaluate(ctx context.Context, c models.FoodCandidate) (nutrition.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ledger, err := s.load(ctx)
	if err != nil {
		return nutrition.Decision{}, err
	}
	return nutrition.Evaluate(c, ledger.TodayTotals(s.clock()), nutrition.ComputeDailyGoal(p))
}

// AddFood re-evaluates the candidate and logs what the decision allows.
// ChoiceFull only changes the outcome of an excess warning.
func (s *Service) AddFood(ctx context.Context, c models.FoodCandidate, choice Choice) (models.FoodEntry, nutrition.Decision, error) {
	if choice == "" {
		choice = ChoiceSuggested
	}
	if choice != ChoiceSuggested && choice != ChoiceFull {
		return models.FoodEntry{}, nutrition.Decision{}, ErrInvalidChoice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ledger, err := s.load(ctx)
	if err != nil {
		return models.FoodEntry{}, nutrition.Decision{}, err
	}

	now := s.clock()
	decision, err := nutrition.Evaluate(c, ledger.TodayTotals(now), nutrition.ComputeDailyGoal(p))
	if err != nil {
		return models.FoodEntry{}, nutrition.Decision{}, err
	}
	if !decision.CanAdd() {
		s.logger.Info("daily limit reached, food not logged", zap.String("name", c.Name), zap.Int("remaining", decision.Remaining))
		return models.FoodEntry{}, decision, models.ErrLimitReached
	}

	logged := *decision.Suggested
	if decision.Kind == nutrition.ExcessWarning && choice == ChoiceFull {
		logged = *decision.Full
	}

	entry := models.NewFoodEntry(logged, now)
	ledger.Add(entry)
	if err := s.gateway.SaveLedger(ctx, ledger); err != nil {
		return models.FoodEntry{}, decision, err
	}

	s.logger.Info("food logged",
		zap.String("name", entry.Name),
		zap.Int("calories", entry.Calories),
		zap.String("decision", string(decision.Kind)),
	)
	return entry, decision, nil
}

// DeleteEntry removes the entry identified by its timestamp.
func (s *Service) DeleteEntry(ctx context.Context, timestamp int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.gateway.LoadLedger(ctx)
	if err != nil {
		return err
	}
	if !ledger.Remove(timestamp) {
		return ErrEntryNotFound
	}
	return s.gateway.SaveLedger(ctx, ledger)
}

// ResetToday drops today's entries and returns how many were removed.
func (s *Service) ResetToday(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.gateway.LoadLedger(ctx)
	if err != nil {
		return 0, err
	}
	removed := ledger.ResetToday(s.clock())
	if err := s.gateway.SaveLedger(ctx, ledger); err != nil {
		return 0, err
	}

	s.logger.Info("today's entries cleared", zap.Int("removed", removed))
	return removed, nil
}

// ResetAll clears the ledger and the profile.
func (s *Service) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gateway.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("all data cleared")
	return nil
}

// Summary builds the summary of the calendar day containing date.
func (s *Service) Summary(ctx context.Context, date time.Time) (models.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ledger, err := s.load(ctx)
	if err != nil {
		return models.DailySummary{}, err
	}

	day := date.In(s.loc)
	entries := ledger.Today(day)
	totals := nutrition.Sum(entries)
	goal := nutrition.ComputeDailyGoal(p)

	return models.DailySummary{
		Date:          time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc),
		Goal:          goal,
		Totals:        totals,
		Entries:       len(entries),
		ConsumedPct:   nutrition.GoalProgress(totals.Calories, goal),
		RemainingKcal: goal - totals.Calories,
		CreatedAt:     s.clock(),
	}, nil
}

func (s *Service) load(ctx context.Context) (models.Profile, *nutrition.Ledger, error) {
	p, err := s.gateway.LoadProfile(ctx)
	if err != nil {
		return models.Profile{}, nil, err
	}
	ledger, err := s.gateway.LoadLedger(ctx)
	if err != nil {
		return models.Profile{}, nil, fmt.Errorf("load ledger: %w", err)
	}
	return p, ledger, nil
}
