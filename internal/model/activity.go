package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Scope string

const (
	Scope1 Scope = "scope_1"
	Scope2 Scope = "scope_2"
	Scope3 Scope = "scope_3"
)

type ActivityType string

const (
	ActivityElectricity     ActivityType = "electricity"
	ActivityNaturalGas      ActivityType = "natural_gas"
	ActivityHeatingOil      ActivityType = "heating_oil"
	ActivityDiesel          ActivityType = "diesel"
	ActivityPetrol          ActivityType = "petrol"
	ActivityLPG             ActivityType = "lpg"
	ActivityFreight         ActivityType = "transport_freight"
	ActivityBusinessTravel  ActivityType = "transport_business_travel"
	ActivityWasteDisposal   ActivityType = "waste_disposal"
	ActivityWater           ActivityType = "water_consumption"
	ActivityRefrigerants    ActivityType = "refrigerants"
	ActivityOther           ActivityType = "other"
)

// ParseActivityType normalizes free-form input ("Natural Gas") into an
// ActivityType. Unknown values report false.
func ParseActivityType(raw string) (ActivityType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch typed := ActivityType(normalized); typed {
	case ActivityElectricity, ActivityNaturalGas, ActivityHeatingOil,
		ActivityDiesel, ActivityPetrol, ActivityLPG,
		ActivityFreight, ActivityBusinessTravel, ActivityWasteDisposal,
		ActivityWater, ActivityRefrigerants, ActivityOther:
		return typed, true
	}
	return ActivityOther, false
}

// ParseScope accepts scope_1/scope1/1 forms.
func ParseScope(raw string) (Scope, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch normalized {
	case "scope_1", "scope1", "1":
		return Scope1, true
	case "scope_2", "scope2", "2":
		return Scope2, true
	case "scope_3", "scope3", "3":
		return Scope3, true
	}
	return "", false
}

// DefaultScopeFor returns the usual GHG Protocol scope for an activity type:
// on-site combustion and refrigerants are scope 1, purchased electricity is
// scope 2, everything else lands in scope 3.
func DefaultScopeFor(activityType ActivityType) Scope {
	switch activityType {
	case ActivityNaturalGas, ActivityHeatingOil, ActivityDiesel,
		ActivityPetrol, ActivityLPG, ActivityRefrigerants:
		return Scope1
	case ActivityElectricity:
		return Scope2
	default:
		return Scope3
	}
}

type DataSource string

const (
	SourceInvoice     DataSource = "invoice"
	SourceUtilityBill DataSource = "utility_bill"
	SourceEnergyMeter DataSource = "energy_meter"
	SourceIoTSensor   DataSource = "iot_sensor"
	SourceManualEntry DataSource = "manual_entry"
	SourceImport      DataSource = "import"
)

// ActivityRecord is a single measured activity (an invoice line item, a meter
// reading, a manual entry) that contributes to a company's footprint.
// EmissionFactor and CO2Emissions are filled in by the calculator; once
// CO2Emissions is set it is authoritative and never recomputed.
type ActivityRecord struct {
	ID           uuid.UUID    `json:"id"`
	CompanyID    uuid.UUID    `json:"company_id"`
	ActivityType ActivityType `json:"activity_type"`
	Description  *string      `json:"description,omitempty"`
	Scope        Scope        `json:"scope"`

	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
	CountryCode string  `json:"country_code"`
	SubType     *string `json:"sub_type,omitempty"`

	EmissionFactor *float64 `json:"emission_factor,omitempty"`
	CO2Emissions   *float64 `json:"co2_emissions,omitempty" gorm:"column:co2_emissions"`

	SourceType DataSource `json:"source_type"`
	Date       time.Time  `json:"date"`
	Verified   bool       `json:"verified"`
	CreatedAt  time.Time  `json:"created_at"`
}
