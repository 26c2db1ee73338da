package models

import "time"

// DailySummary represents one calendar day of logged food, as exported to MongoDB or Sheets.
type DailySummary struct {
	Date          time.Time `bson:"date" json:"date"`
	Goal          int       `bson:"goal" json:"goal"`
	Totals        Totals    `bson:"totals" json:"totals"`
	Entries       int       `bson:"entries" json:"entries"`
	ConsumedPct   float64   `bson:"consumed_pct" json:"consumedPercent"`
	RemainingKcal int       `bson:"remaining_kcal" json:"remaining"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}
