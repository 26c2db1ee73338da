package nutrition

import (
	"fmt"
	"math"

	"github.com/mamadbah2/caltrack/internal/domain/models"
)

// perfectFitTolerance is how close (kcal) a food must land to the remaining budget to complete the goal.
const perfectFitTolerance = 5

// DecisionKind enumerates the outcomes of evaluating a food against the remaining budget.
type DecisionKind string

const (
	PerfectFit         DecisionKind = "perfect_fit"
	PerfectAdjustedFit DecisionKind = "perfect_adjusted_fit"
	ExcessWarning      DecisionKind = "excess_warning"
	LimitReached       DecisionKind = "limit_reached"
	NormalAdd          DecisionKind = "normal_add"
)

// Decision is the advice for a candidate. Suggested is what gets logged by default;
// Full is the unscaled candidate offered as an override on ExcessWarning.
type Decision struct {
	Kind      DecisionKind          `json:"kind"`
	Remaining int                   `json:"remaining"`
	Suggested *models.FoodCandidate `json:"suggested,omitempty"`
	Full      *models.FoodCandidate `json:"full,omitempty"`
	// Portion is the scaled share of the candidate in percent, rounded to 0.1.
	Portion float64 `json:"portion"`
	// GoalPercent is the share of the daily goal consumed once the suggestion is logged.
	GoalPercent float64 `json:"goalPercent"`
	// ExceedPercent is how far over the goal logging the candidate would go.
	ExceedPercent float64 `json:"exceedPercent,omitempty"`
}

// CanAdd reports whether the decision offers anything to log.
func (d Decision) CanAdd() bool {
	return d.Kind != LimitReached && d.Suggested != nil
}

// Evaluate decides how a candidate fits into what is left of the daily goal.
func Evaluate(c models.FoodCandidate, totals models.Totals, dailyGoal int) (Decision, error) {
	if !c.Complete() {
		return Decision{}, models.ErrIncompleteCandidate
	}

	remaining := dailyGoal - totals.Calories
	goal := float64(dailyGoal)

	if remaining <= 0 {
		over := float64(totals.Calories + c.Calories - dailyGoal)
		return Decision{
			Kind:          LimitReached,
			Remaining:     remaining,
			ExceedPercent: round1(percentOf(over, goal)),
		}, nil
	}

	if abs(c.Calories-remaining) <= perfectFitTolerance {
		suggested := c
		return Decision{
			Kind:        PerfectFit,
			Remaining:   remaining,
			Suggested:   &suggested,
			GoalPercent: round1(percentOf(float64(totals.Calories+c.Calories), goal)),
		}, nil
	}

	if c.Calories > remaining {
		portion := round1(float64(remaining) / float64(c.Calories) * 100)
		scaled := ScalePortion(c, portion)
		full := c

		kind := ExcessWarning
		if abs(scaled.Calories-remaining) <= perfectFitTolerance {
			kind = PerfectAdjustedFit
		}
		return Decision{
			Kind:        kind,
			Remaining:   remaining,
			Suggested:   &scaled,
			Full:        &full,
			Portion:     portion,
			GoalPercent: round1(percentOf(float64(totals.Calories+scaled.Calories), goal)),
		}, nil
	}

	suggested := c
	return Decision{
		Kind:        NormalAdd,
		Remaining:   remaining,
		Suggested:   &suggested,
		GoalPercent: round1(percentOf(float64(totals.Calories+c.Calories), goal)),
	}, nil
}

// ScalePortion scales every nutrient by portion percent and labels the name with it.
func ScalePortion(c models.FoodCandidate, portion float64) models.FoodCandidate {
	ratio := portion / 100
	return models.FoodCandidate{
		Name:     fmt.Sprintf("%.1f%% %s", portion, c.Name),
		Calories: int(math.Round(float64(c.Calories) * ratio)),
		Protein:  round1(c.Protein * ratio),
		Carbs:    round1(c.Carbs * ratio),
		Fat:      round1(c.Fat * ratio),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
