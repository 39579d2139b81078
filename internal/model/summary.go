package model

import (
	"time"

	"github.com/google/uuid"
)

type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceWarning      ComplianceStatus = "warning"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
)

// PeriodSummary aggregates calculated activity records for one company over a
// reporting period. It is a pure computation result; the service never stores it.
type PeriodSummary struct {
	CompanyID   uuid.UUID `json:"company_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Scope1Total    float64 `json:"scope_1_total"`
	Scope2Total    float64 `json:"scope_2_total"`
	Scope3Total    float64 `json:"scope_3_total"`
	TotalEmissions float64 `json:"total_emissions"`

	EmissionsByActivity map[string]float64 `json:"emissions_by_activity"`

	PreviousPeriodTotal *float64 `json:"previous_period_total,omitempty"`
	ChangePercentage    *float64 `json:"change_percentage,omitempty"`

	ComplianceStatus       ComplianceStatus `json:"compliance_status"`
	DataPointsCount        int              `json:"data_points_count"`
	VerifiedDataPercentage float64          `json:"verified_data_percentage"`

	GeneratedAt time.Time `json:"generated_at"`
}

// CompanyOverview merges the invoice-derived period summary with the
// sensor-derived totals for the same window.
type CompanyOverview struct {
	Summary          PeriodSummary   `json:"summary"`
	SensorEmissions  float64         `json:"sensor_emissions"`
	SensorSummaries  []SensorSummary `json:"sensor_summaries"`
	CombinedTotal    float64         `json:"combined_total"`
}
