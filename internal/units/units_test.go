package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		unit   string
		want   float64
	}{
		{"kwh passes through", 1500, "kWh", 1500},
		{"mwh to kwh", 1.5, "MWh", 1500},
		{"gwh to kwh", 0.001, "GWh", 1000},
		{"cubic meters pass through", 42, "m3", 42},
		{"liters to cubic meters", 1000, "l", 1.0},
		{"litres spelled out", 500, "litres", 0.5},
		{"kg passes through", 12, "kg", 12},
		{"tonnes to kg", 2, "tonnes", 2000},
		{"ton singular", 1, "ton", 1000},
		{"km passes through", 100, "km", 100},
		{"meters to km", 1500, "m", 1.5},
		{"unknown unit passes through", 7, "bananas", 7},
		{"empty unit passes through", 3, "", 3},
		{"case and spacing ignored", 1, " TONNE ", 1000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Normalize(tc.amount, tc.unit), 1e-9)
		})
	}
}

func TestToKgCO2e(t *testing.T) {
	for _, unit := range []string{"t", "tonne", "tonnes", "tCO2", "tCO2e", "t CO2e"} {
		got := ToKgCO2e(2, unit)
		require.NotNil(t, got, "unit %q should convert directly", unit)
		assert.InDelta(t, 2000.0, *got, 1e-9)
	}

	for _, unit := range []string{"kWh", "kg", "l", "km", "", "co2"} {
		assert.Nil(t, ToKgCO2e(2, unit), "unit %q is not an emissions unit", unit)
	}
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "tco2e", NormalizeKey(" t CO2e "))
	assert.Equal(t, "m3", NormalizeKey("M3"))
	assert.Equal(t, "kwh", NormalizeKey("k.W.h"))
}
