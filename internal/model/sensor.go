package model

import (
	"time"

	"github.com/google/uuid"
)

// Sensor is an IoT device whose activity is reconciled into emissions.
// Rows in sensor_activity may reference it by either its canonical ID or its
// operator-assigned DeviceID; both resolve to the same sensor.
type Sensor struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	DeviceID       string     `json:"device_id"`
	PowerKW        float64    `json:"power_kw" gorm:"column:power_kw"`
	EmissionFactor float64    `json:"emission_factor"` // kg CO2e per kWh
	SessionStart   *time.Time `json:"session_start,omitempty"`
	LastAnalysis   *time.Time `json:"last_analysis,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SensorActivityRow is a raw telemetry row as stored. A row carries at most one
// of: a direct energy report, a duration (explicit hours or a session interval),
// or a discrete ON/OFF state change.
type SensorActivityRow struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	DeviceID  string    `json:"device_id"`

	EnergyKWh    *float64   `json:"energy_kwh,omitempty" gorm:"column:energy_kwh"`
	Hours        *float64   `json:"hours,omitempty"`
	SessionStart *time.Time `json:"session_start,omitempty"`
	SessionEnd   *time.Time `json:"session_end,omitempty"`
	State        *string    `json:"state,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty" gorm:"column:event_at"`

	CreatedAt time.Time `json:"created_at"`
}

// SensorSummary is the reconciled per-sensor result for one window.
type SensorSummary struct {
	SensorID    uuid.UUID `json:"sensor_id"`
	DeviceID    string    `json:"device_id"`
	EnergyKWh   float64   `json:"energy_kwh"`
	EmissionsKg float64   `json:"emissions_kg"`
	Cycles      int       `json:"cycles"`
	OnHours     float64   `json:"on_hours"`
}
