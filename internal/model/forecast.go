package model

import (
	"time"

	"github.com/google/uuid"
)

// Forecast is a projected emissions trajectory derived from historical records.
type Forecast struct {
	CompanyID           uuid.UUID `json:"company_id"`
	ForecastPeriodStart time.Time `json:"forecast_period_start"`
	ForecastPeriodEnd   time.Time `json:"forecast_period_end"`

	PredictedScope1 float64 `json:"predicted_scope_1"`
	PredictedScope2 float64 `json:"predicted_scope_2"`
	PredictedScope3 float64 `json:"predicted_scope_3"`
	PredictedTotal  float64 `json:"predicted_total"`

	ConfidenceLower float64 `json:"confidence_interval_lower"`
	ConfidenceUpper float64 `json:"confidence_interval_upper"`

	ModelType          string   `json:"model_type"`
	TrainingDataPoints int      `json:"training_data_points"`
	Trend              string   `json:"trend"` // increasing, decreasing, stable
	SeasonalPatterns   []string `json:"seasonal_patterns"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Anomaly flags a record whose emissions deviate strongly from the company's
// historical distribution.
type Anomaly struct {
	Date         time.Time    `json:"date"`
	ActivityType ActivityType `json:"activity_type"`
	Emissions    float64      `json:"emissions"`
	Score        float64      `json:"anomaly_score"`
	Severity     string       `json:"severity"`
	Description  string       `json:"description"`
}

// Recommendation is a suggested reduction measure ranked by estimated impact.
type Recommendation struct {
	ActivityType        ActivityType `json:"activity_type"`
	CurrentEmissions    float64      `json:"current_emissions"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	EstimatedReduction  float64      `json:"estimated_reduction"`
	ReductionPercentage float64      `json:"reduction_percentage"`
	CostImpact          string       `json:"cost_impact"`
	Difficulty          string       `json:"difficulty"`
	Priority            string       `json:"priority"`
	ImplementationWeeks int          `json:"implementation_time_weeks"`
}
