// Package factor holds emission factors keyed by activity type, country and
// sub-type, plus a refreshable cache of unit-level factors fetched from
// remote sources.
package factor

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/units"
)

// Table maps activity type -> lookup key -> kg CO2e per normalized unit.
// The lookup key is a sub-type ("truck"), a country code ("SE") or "default";
// every activity entry carries a "default" key.
type Table map[string]map[string]float64

// fallbackFactor is returned when an activity type is entirely unknown.
const fallbackFactor = 1.0

type Registry struct {
	mu          sync.RWMutex
	factors     Table
	unitFactors map[string]float64
	log         zerolog.Logger
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		factors:     defaultFactors(),
		unitFactors: map[string]float64{},
		log:         log,
	}
}

// defaultFactors is the built-in table, based on IPCC, EPA and EEA data.
func defaultFactors() Table {
	return Table{
		"electricity": {
			// kg CO2e per kWh
			"SE":      0.013, // Sweden, nuclear + hydro
			"NO":      0.018, // Norway, mostly hydro
			"DK":      0.167,
			"FI":      0.093,
			"default": 0.500, // EU average
		},
		"natural_gas": {
			// kg CO2e per m³
			"default": 2.03,
		},
		"diesel": {
			// kg CO2e per liter
			"default": 2.68,
		},
		"petrol": {
			"default": 2.31,
		},
		"heating_oil": {
			"default": 2.96,
		},
		"lpg": {
			// kg CO2e per kg
			"default": 3.00,
		},
		"transport_freight": {
			// kg CO2e per ton-km
			"truck":   0.097,
			"rail":    0.022,
			"ship":    0.011,
			"air":     0.602,
			"default": 0.097,
		},
		"transport_business_travel": {
			// kg CO2e per passenger-km
			"car":                  0.171,
			"bus":                  0.089,
			"train":                0.041,
			"flight_domestic":      0.255,
			"flight_international": 0.195,
			"default":              0.171,
		},
		"waste_disposal": {
			// kg CO2e per kg
			"landfill":     0.500,
			"incineration": 0.020,
			"recycling":    -0.150, // carbon credit
			"composting":   0.010,
			"default":      0.500,
		},
		"water_consumption": {
			// kg CO2e per m³
			"default": 0.344,
		},
		"refrigerants": {
			// kg CO2e per kg leaked
			"R-134a":  1430,
			"R-410A":  2088,
			"R-32":    675,
			"default": 1430,
		},
	}
}

// Factor resolves the emission factor for an activity. Lookup order:
// sub-type, country code, the activity's "default" entry, then the global
// fallback of 1.0 for activities the table does not know at all.
func (r *Registry) Factor(activityType model.ActivityType, countryCode string, subType *string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factors, ok := r.factors[string(activityType)]
	if !ok {
		r.log.Warn().
			Str("activity_type", string(activityType)).
			Msg("no emission factor for activity, using fallback")
		return fallbackFactor
	}

	if subType != nil {
		if f, ok := factors[*subType]; ok {
			return f
		}
	}
	if f, ok := factors[countryCode]; ok {
		return f
	}
	if f, ok := factors["default"]; ok {
		return f
	}
	return fallbackFactor
}

// MergeOverrides merges a custom table into the registry. Keys are merged per
// activity (override wins on collision), so a partial override does not drop
// the remaining keys of that activity.
func (r *Registry) MergeOverrides(overrides Table) {
	if len(overrides) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for activity, keys := range overrides {
		existing, ok := r.factors[activity]
		if !ok {
			existing = map[string]float64{}
			r.factors[activity] = existing
		}
		for key, value := range keys {
			existing[key] = value
		}
	}
}

// UnitFactor returns the cached remote-sourced factor for a unit, if any.
func (r *Registry) UnitFactor(unit string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.unitFactors[units.NormalizeKey(unit)]
	return f, ok
}

// UnitFactors returns a copy of the cached unit-factor mapping.
func (r *Registry) UnitFactors() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.unitFactors))
	for k, v := range r.unitFactors {
		out[k] = v
	}
	return out
}

func (r *Registry) setUnitFactors(mapping map[string]float64) {
	r.mu.Lock()
	r.unitFactors = mapping
	r.mu.Unlock()
}
