// Package nutrition holds the daily goal, ledger accounting and portion advice.
package nutrition

import (
	"math"

	"github.com/mamadbah2/caltrack/internal/domain/models"
)

var activityFactors = map[models.ActivityLevel]float64{
	models.ActivityLow:    1.2,
	models.ActivityMedium: 1.55,
	models.ActivityHigh:   1.9,
}

// ComputeDailyGoal derives the daily calorie target using Mifflin-St Jeor.
func ComputeDailyGoal(p models.Profile) int {
	return goalFromBMR(BMR(p), p.ActivityLevel, p.Goal)
}

// BMR returns the basal metabolic rate in kcal/day.
func BMR(p models.Profile) float64 {
	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == models.GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// goalFromBMR rounds the activity-scaled value before applying the 20% deficit or surplus.
func goalFromBMR(bmr float64, level models.ActivityLevel, goal models.Goal) int {
	target := math.Round(bmr * activityFactors[level])

	switch goal {
	case models.GoalLose:
		target = math.Round(target * 0.8)
	case models.GoalGain:
		target = math.Round(target * 1.2)
	}

	return int(target)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// GoalProgress is the share of the daily goal consumed, in percent to one decimal.
// It is not capped; a zero goal yields 0.
func GoalProgress(consumed, dailyGoal int) float64 {
	return round1(percentOf(float64(consumed), float64(dailyGoal)))
}
