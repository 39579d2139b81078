package factor

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/karvio/emissions-service/internal/model"
)

func testRegistry() *Registry {
	return NewRegistry(zerolog.Nop())
}

func TestFactorLookupOrder(t *testing.T) {
	r := testRegistry()

	truck := "truck"
	rail := "rail"
	unknown := "hovercraft"

	tests := []struct {
		name         string
		activityType model.ActivityType
		country      string
		subType      *string
		want         float64
	}{
		{"sub-type wins", model.ActivityFreight, "SE", &rail, 0.022},
		{"truck sub-type", model.ActivityFreight, "", &truck, 0.097},
		{"unknown sub-type falls to country then default", model.ActivityFreight, "XX", &unknown, 0.097},
		{"country code", model.ActivityElectricity, "SE", nil, 0.013},
		{"norway hydro", model.ActivityElectricity, "NO", nil, 0.018},
		{"unknown country uses default", model.ActivityElectricity, "XX", nil, 0.500},
		{"activity default", model.ActivityNaturalGas, "SE", nil, 2.03},
		{"unknown activity falls back to 1.0", model.ActivityType("unicorn_fuel"), "SE", nil, 1.0},
		{"recycling credit is negative", model.ActivityWasteDisposal, "", strPtr("recycling"), -0.150},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, r.Factor(tc.activityType, tc.country, tc.subType), 1e-9)
		})
	}
}

func TestMergeOverrides(t *testing.T) {
	r := testRegistry()

	r.MergeOverrides(Table{
		"electricity": {"SE": 0.020, "IS": 0.001},
		"biofuel":     {"default": 0.5},
	})

	assert.InDelta(t, 0.020, r.Factor(model.ActivityElectricity, "SE", nil), 1e-9)
	assert.InDelta(t, 0.001, r.Factor(model.ActivityElectricity, "IS", nil), 1e-9)
	// untouched keys of a partially overridden activity survive
	assert.InDelta(t, 0.018, r.Factor(model.ActivityElectricity, "NO", nil), 1e-9)
	assert.InDelta(t, 0.5, r.Factor(model.ActivityType("biofuel"), "", nil), 1e-9)

	// empty merge is a no-op
	r.MergeOverrides(nil)
	assert.InDelta(t, 0.020, r.Factor(model.ActivityElectricity, "SE", nil), 1e-9)
}

func TestUnitFactors(t *testing.T) {
	r := testRegistry()

	_, ok := r.UnitFactor("kWh")
	assert.False(t, ok)

	r.setUnitFactors(map[string]float64{"kwh": 0.25})

	f, ok := r.UnitFactor(" kWh ")
	assert.True(t, ok)
	assert.InDelta(t, 0.25, f, 1e-9)

	// UnitFactors returns a copy, not the live map
	snapshot := r.UnitFactors()
	snapshot["kwh"] = 99
	f, _ = r.UnitFactor("kwh")
	assert.InDelta(t, 0.25, f, 1e-9)
}

func strPtr(s string) *string { return &s }
