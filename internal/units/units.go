// Package units normalizes physical quantities to the base unit of their
// measurement family: energy to kWh, volume to m³, mass to kg, distance to km.
package units

import "strings"

// Normalize converts amount to the base unit implied by unit. Unknown units
// pass through unchanged; an upstream mapping mistake must not abort a batch.
func Normalize(amount float64, unit string) float64 {
	switch NormalizeKey(unit) {
	case "kwh", "kilowatt-hour", "kilowatthour":
		return amount
	case "mwh", "megawatt-hour", "megawatthour":
		return amount * 1000
	case "gwh", "gigawatt-hour", "gigawatthour":
		return amount * 1000000

	case "m3", "m³", "cubicmeter", "cubicmetre":
		return amount
	case "l", "liter", "litre", "liters", "litres":
		return amount / 1000

	case "kg", "kilogram", "kilograms":
		return amount
	case "t", "ton", "tonne", "tonnes":
		return amount * 1000

	case "km", "kilometer", "kilometre":
		return amount
	case "m", "meter", "metre":
		return amount / 1000
	}
	return amount
}

// ToKgCO2e converts quantities whose unit already denotes tonnes of CO2 into
// kg CO2e. It returns nil for every other unit: those are physical quantities
// that still need an emission factor, not emissions in disguise.
func ToKgCO2e(quantity float64, unit string) *float64 {
	switch NormalizeKey(unit) {
	case "t", "tonne", "tonnes", "tco2", "tco2e":
		kg := quantity * 1000
		return &kg
	}
	return nil
}

// NormalizeKey lower-cases a unit string and strips spaces and periods, the
// same canonical form remote factor sources are stored under.
func NormalizeKey(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	unit = strings.ReplaceAll(unit, " ", "")
	return strings.ReplaceAll(unit, ".", "")
}
