package models

import "time"

// FoodCandidate is a recognized or manually entered food that has not been logged yet.
type FoodCandidate struct {
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Complete reports whether the candidate carries a name and non-zero nutrition values.
func (c FoodCandidate) Complete() bool {
	return c.Name != "" && c.Calories != 0 && c.Protein != 0 && c.Carbs != 0 && c.Fat != 0
}

// FoodEntry is a logged food. Timestamp is milliseconds since epoch and identifies the entry.
type FoodEntry struct {
	Name      string  `json:"name" bson:"name"`
	Calories  int     `json:"calories" bson:"calories"`
	Protein   float64 `json:"protein" bson:"protein"`
	Carbs     float64 `json:"carbs" bson:"carbs"`
	Fat       float64 `json:"fat" bson:"fat"`
	Timestamp int64   `json:"timestamp" bson:"timestamp"`
}

// NewFoodEntry stamps a candidate with the moment it was logged.
func NewFoodEntry(c FoodCandidate, at time.Time) FoodEntry {
	return FoodEntry{
		Name:      c.Name,
		Calories:  c.Calories,
		Protein:   c.Protein,
		Carbs:     c.Carbs,
		Fat:       c.Fat,
		Timestamp: at.UnixMilli(),
	}
}

// LoggedAt returns the entry time in the supplied location.
func (e FoodEntry) LoggedAt(loc *time.Location) time.Time {
	return time.UnixMilli(e.Timestamp).In(loc)
}

// Totals sums calories and macros over a set of entries.
type Totals struct {
	Calories int     `json:"calories" bson:"calories"`
	Protein  float64 `json:"protein" bson:"protein"`
	Carbs    float64 `json:"carbs" bson:"carbs"`
	Fat      float64 `json:"fat" bson:"fat"`
}
