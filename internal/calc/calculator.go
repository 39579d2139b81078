// Package calc implements the GHG Protocol emission calculation: per-record
// CO2e, batch calculation, scoped period summaries and intensity metrics.
package calc

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/karvio/emissions-service/internal/factor"
	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/units"
)

// Thresholds are the per-scope warning limits in kg CO2e per year.
type Thresholds struct {
	Scope1Warning float64
	Scope2Warning float64
	Scope3Warning float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Scope1Warning: 100000,
		Scope2Warning: 50000,
		Scope3Warning: 200000,
	}
}

type Calculator struct {
	registry   *factor.Registry
	thresholds Thresholds
	log        zerolog.Logger
}

func NewCalculator(registry *factor.Registry, thresholds Thresholds, log zerolog.Logger) *Calculator {
	return &Calculator{
		registry:   registry,
		thresholds: thresholds,
		log:        log,
	}
}

// Calculate computes kg CO2e for a single activity quantity.
func (c *Calculator) Calculate(activityType model.ActivityType, amount float64, unit, countryCode string, subType *string) float64 {
	emissionFactor := c.registry.Factor(activityType, countryCode, subType)
	converted := units.Normalize(amount, unit)
	emissions := converted * emissionFactor

	c.log.Debug().
		Str("activity_type", string(activityType)).
		Float64("amount", amount).
		Str("unit", unit).
		Float64("factor", emissionFactor).
		Float64("emissions_kg", emissions).
		Msg("calculated emissions")

	return emissions
}

// CalculateForRecord fills EmissionFactor and CO2Emissions on the record,
// but only when absent. A previously supplied or verified value is
// authoritative and is never recomputed.
func (c *Calculator) CalculateForRecord(record *model.ActivityRecord) {
	if record.EmissionFactor == nil {
		f := c.registry.Factor(record.ActivityType, record.CountryCode, record.SubType)
		record.EmissionFactor = &f
	}
	if record.CO2Emissions == nil {
		emissions := c.Calculate(record.ActivityType, record.Amount, record.Unit, record.CountryCode, record.SubType)
		record.CO2Emissions = &emissions
	}
}

// CalculateBatch applies CalculateForRecord to every record. Records carry no
// cross-record dependency, so order does not matter.
func (c *Calculator) CalculateBatch(records []model.ActivityRecord) []model.ActivityRecord {
	for i := range records {
		c.CalculateForRecord(&records[i])
	}
	return records
}

// Summarize filters records to the company and period (both ends inclusive),
// calculates any unset emissions and folds the result into a PeriodSummary.
// An empty match yields a zero summary, not an error.
func (c *Calculator) Summarize(
	records []model.ActivityRecord,
	companyID uuid.UUID,
	periodStart, periodEnd time.Time,
	previousPeriodTotal *float64,
) model.PeriodSummary {
	filtered := make([]model.ActivityRecord, 0, len(records))
	for _, record := range records {
		if record.CompanyID != companyID {
			continue
		}
		if record.Date.Before(periodStart) || record.Date.After(periodEnd) {
			continue
		}
		filtered = append(filtered, record)
	}

	c.CalculateBatch(filtered)

	var scope1, scope2, scope3 float64
	byActivity := map[string]float64{}
	verifiedCount := 0

	for _, record := range filtered {
		if record.CO2Emissions == nil {
			continue
		}
		emissions := *record.CO2Emissions
		switch record.Scope {
		case model.Scope1:
			scope1 += emissions
		case model.Scope2:
			scope2 += emissions
		case model.Scope3:
			scope3 += emissions
		}
		byActivity[string(record.ActivityType)] += emissions
		if record.Verified {
			verifiedCount++
		}
	}

	total := scope1 + scope2 + scope3

	var changePercentage *float64
	if previousPeriodTotal != nil && *previousPeriodTotal > 0 {
		change := (total - *previousPeriodTotal) / *previousPeriodTotal * 100
		changePercentage = &change
	}

	verifiedPercentage := 0.0
	if len(filtered) > 0 {
		verifiedPercentage = float64(verifiedCount) / float64(len(filtered)) * 100
	}

	return model.PeriodSummary{
		CompanyID:              companyID,
		PeriodStart:            periodStart,
		PeriodEnd:              periodEnd,
		Scope1Total:            scope1,
		Scope2Total:            scope2,
		Scope3Total:            scope3,
		TotalEmissions:         total,
		EmissionsByActivity:    byActivity,
		PreviousPeriodTotal:    previousPeriodTotal,
		ChangePercentage:       changePercentage,
		ComplianceStatus:       c.complianceStatus(scope1, scope2, scope3),
		DataPointsCount:        len(filtered),
		VerifiedDataPercentage: verifiedPercentage,
		GeneratedAt:            time.Now().UTC(),
	}
}

func (c *Calculator) complianceStatus(scope1, scope2, scope3 float64) model.ComplianceStatus {
	if scope1 > c.thresholds.Scope1Warning ||
		scope2 > c.thresholds.Scope2Warning ||
		scope3 > c.thresholds.Scope3Warning {
		return model.ComplianceWarning
	}
	return model.ComplianceCompliant
}

// IntensityMetrics emits a ratio for each denominator that is present and
// strictly positive; absent denominators simply omit the key.
func (c *Calculator) IntensityMetrics(totalEmissions float64, revenue *float64, employees *int, productionVolume *float64) map[string]float64 {
	metrics := map[string]float64{}

	if revenue != nil && *revenue > 0 {
		metrics["emissions_per_revenue"] = totalEmissions / *revenue
	}
	if employees != nil && *employees > 0 {
		metrics["emissions_per_employee"] = totalEmissions / float64(*employees)
	}
	if productionVolume != nil && *productionVolume > 0 {
		metrics["emissions_per_unit"] = totalEmissions / *productionVolume
	}
	return metrics
}
