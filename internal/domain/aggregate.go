package domain

// AggregateRow is one per-owner line of the fitness summary. It is derived on
// every read and never persisted.
type AggregateRow struct {
	SequenceNumber   int     `json:"srNo"`
	OwnerEmail       string  `json:"email"`
	TotalSteps       float64 `json:"totalSteps"`
	TotalCalories    float64 `json:"totalCalories"`
	TotalWaterIntake float64 `json:"totalWaterIntake"`
}
