package nutrition

import (
	"math"
	"time"

	"github.com/mamadbah2/caltrack/internal/domain/models"
)

// Calories per gram and share of the daily goal for each macro.
const (
	proteinShare = 0.30
	carbsShare   = 0.50
	fatShare     = 0.20

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// Ledger is the newest-first list of logged foods.
type Ledger struct {
	Entries []models.FoodEntry
}

// NewLedger wraps an existing snapshot. A nil slice yields an empty ledger.
func NewLedger(entries []models.FoodEntry) *Ledger {
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	return &Ledger{Entries: entries}
}

// Add prepends the entry.
func (l *Ledger) Add(e models.FoodEntry) {
	l.Entries = append([]models.FoodEntry{e}, l.Entries...)
}

// Remove deletes the entry with the given timestamp. It reports whether anything was removed.
func (l *Ledger) Remove(timestamp int64) bool {
	for i, e := range l.Entries {
		if e.Timestamp == timestamp {
			l.Entries = append(l.Entries[:i:i], l.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// ResetToday drops every entry logged on ref's calendar day and returns how many were removed.
func (l *Ledger) ResetToday(ref time.Time) int {
	kept := make([]models.FoodEntry, 0, len(l.Entries))
	for _, e := range l.Entries {
		if !sameDay(e, ref) {
			kept = append(kept, e)
		}
	}
	removed := len(l.Entries) - len(kept)
	l.Entries = kept
	return removed
}

// ResetAll empties the ledger.
func (l *Ledger) ResetAll() {
	l.Entries = []models.FoodEntry{}
}

// Today returns the entries logged on ref's calendar day, newest first.
func (l *Ledger) Today(ref time.Time) []models.FoodEntry {
	out := make([]models.FoodEntry, 0)
	for _, e := range l.Entries {
		if sameDay(e, ref) {
			out = append(out, e)
		}
	}
	return out
}

// TodayTotals sums the entries logged on ref's calendar day.
func (l *Ledger) TodayTotals(ref time.Time) models.Totals {
	return Sum(l.Today(ref))
}

// Sum adds up calories and macros.
func Sum(entries []models.FoodEntry) models.Totals {
	var t models.Totals
	for _, e := range entries {
		t.Calories += e.Calories
		t.Protein += e.Protein
		t.Carbs += e.Carbs
		t.Fat += e.Fat
	}
	return t
}

// MacroProgress is the consumed amount of one macro against its target.
type MacroProgress struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Percent float64 `json:"percent"`
}

// MacroBreakdown reports progress for every macro.
type MacroBreakdown struct {
	Protein MacroProgress `json:"protein"`
	Carbs   MacroProgress `json:"carbs"`
	Fat     MacroProgress `json:"fat"`
}

// MacroBreakdown computes per-macro targets from dailyGoal and today's progress towards them.
func (l *Ledger) MacroBreakdown(dailyGoal int, ref time.Time) MacroBreakdown {
	totals := l.TodayTotals(ref)
	goal := float64(dailyGoal)

	return MacroBreakdown{
		Protein: macroProgress(totals.Protein, goal*proteinShare/kcalPerGramProtein),
		Carbs:   macroProgress(totals.Carbs, goal*carbsShare/kcalPerGramCarbs),
		Fat:     macroProgress(totals.Fat, goal*fatShare/kcalPerGramFat),
	}
}

func macroProgress(current, target float64) MacroProgress {
	return MacroProgress{
		Current: current,
		Target:  target,
		Percent: math.Min(percentOf(current, target), 100),
	}
}

func sameDay(e models.FoodEntry, ref time.Time) bool {
	t := e.LoggedAt(ref.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
