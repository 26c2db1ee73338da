package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/domain/nutrition"
	"github.com/mamadbah2/caltrack/internal/repository"
)

// Storage keys. Values are plain JSON without a version tag.
const (
	ProfileKey = "userProfile"
	EntriesKey = "calorie-tracker-entries"
)

// Gateway loads and saves the profile and ledger snapshots.
type Gateway struct {
	store  repository.Store
	logger *zap.Logger
}

// NewGateway wires a gateway over a key-value store.
func NewGateway(store repository.Store, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{store: store, logger: logger}
}

// LoadProfile returns models.ErrProfileNotFound when no profile is stored or the stored one is unreadable.
func (g *Gateway) LoadProfile(ctx context.Context) (models.Profile, error) {
	raw, err := g.store.Get(ctx, ProfileKey)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Profile{}, models.ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	var p models.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		g.logger.Warn("stored profile is corrupt, onboarding required", zap.Error(err))
		return models.Profile{}, fmt.Errorf("%w: %w", models.ErrProfileNotFound, models.ErrStorageCorruption)
	}
	return p, nil
}

// SaveProfile overwrites the stored profile.
func (g *Gateway) SaveProfile(ctx context.Context, p models.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := g.store.Set(ctx, ProfileKey, string(data)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadLedger returns the stored ledger. Absent or corrupt snapshots yield an empty ledger,
// and individual entries with missing or mistyped fields are dropped.
func (g *Gateway) LoadLedger(ctx context.Context) (*nutrition.Ledger, error) {
	raw, err := g.store.Get(ctx, EntriesKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nutrition.NewLedger(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	entries, dropped, err := decodeEntries(raw)
	if err != nil {
		g.logger.Warn("stored entries are corrupt, starting with an empty ledger", zap.Error(err))
		return nutrition.NewLedger(nil), nil
	}
	if dropped > 0 {
		g.logger.Warn("filtered out invalid entries", zap.Int("dropped", dropped), zap.Int("kept", len(entries)))
	}
	return nutrition.NewLedger(entries), nil
}

// SaveLedger writes the full ledger snapshot.
func (g *Gateway) SaveLedger(ctx context.Context, l *nutrition.Ledger) error {
	entries := l.Entries
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	if err := g.store.Set(ctx, EntriesKey, string(data)); err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	return nil
}

// Clear removes both snapshots. The two deletes are independent; the first failure is returned.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.store.Delete(ctx, EntriesKey); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if err := g.store.Delete(ctx, ProfileKey); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}

func decodeEntries(raw string) ([]models.FoodEntry, int, error) {
	if !gjson.Valid(raw) {
		return nil, 0, fmt.Errorf("%w: entries are not valid JSON", models.ErrStorageCorruption)
	}
	doc := gjson.Parse(raw)
	if !doc.IsArray() {
		return nil, 0, fmt.Errorf("%w: entries are not a JSON array", models.ErrStorageCorruption)
	}

	entries := make([]models.FoodEntry, 0)
	dropped := 0
	doc.ForEach(func(_, v gjson.Result) bool {
		if !validEntry(v) {
			dropped++
			return true
		}
		entries = append(entries, models.FoodEntry{
			Name:      v.Get("name").String(),
			Calories:  int(v.Get("calories").Int()),
			Protein:   v.Get("protein").Float(),
			Carbs:     v.Get("carbs").Float(),
			Fat:       v.Get("fat").Float(),
			Timestamp: v.Get("timestamp").Int(),
		})
		return true
	})
	return entries, dropped, nil
}

func validEntry(v gjson.Result) bool {
	if !v.IsObject() || v.Get("name").Type != gjson.String {
		return false
	}
	for _, field := range []string{"calories", "protein", "carbs", "fat", "timestamp"} {
		if v.Get(field).Type != gjson.Number {
			return false
		}
	}
	return true
}
