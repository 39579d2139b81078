package forecast

import (
	"sort"

	"github.com/karvio/emissions-service/internal/model"
)

type recommendationTemplate struct {
	Title               string
	Description         string
	ReductionPercentage float64
	CostImpact          string
	Difficulty          string
	ImplementationWeeks int
}

var reductionCatalogue = map[model.ActivityType][]recommendationTemplate{
	model.ActivityElectricity: {
		{
			Title:               "Switch to Renewable Energy Contract",
			Description:         "Switch to a 100% renewable energy contract from your electricity provider",
			ReductionPercentage: 90,
			CostImpact:          "low",
			Difficulty:          "easy",
			ImplementationWeeks: 2,
		},
		{
			Title:               "Install Solar Panels",
			Description:         "Install rooftop solar panels to generate renewable electricity on-site",
			ReductionPercentage: 60,
			CostImpact:          "high",
			Difficulty:          "hard",
			ImplementationWeeks: 12,
		},
		{
			Title:               "Upgrade to LED Lighting",
			Description:         "Replace all traditional lighting with energy-efficient LED lights",
			ReductionPercentage: 10,
			CostImpact:          "medium",
			Difficulty:          "easy",
			ImplementationWeeks: 4,
		},
	},
	model.ActivityNaturalGas: {
		{
			Title:               "Improve Building Insulation",
			Description:         "Upgrade building insulation to reduce heating requirements",
			ReductionPercentage: 30,
			CostImpact:          "medium",
			Difficulty:          "medium",
			ImplementationWeeks: 8,
		},
		{
			Title:               "Install Heat Pump",
			Description:         "Replace gas heating with electric heat pump system",
			ReductionPercentage: 70,
			CostImpact:          "high",
			Difficulty:          "hard",
			ImplementationWeeks: 10,
		},
	},
	model.ActivityFreight: {
		{
			Title:               "Optimize Delivery Routes",
			Description:         "Use route optimization software to minimize travel distances",
			ReductionPercentage: 15,
			CostImpact:          "low",
			Difficulty:          "easy",
			ImplementationWeeks: 2,
		},
		{
			Title:               "Switch to Electric Vehicles",
			Description:         "Replace diesel vehicles with electric alternatives",
			ReductionPercentage: 80,
			CostImpact:          "high",
			Difficulty:          "medium",
			ImplementationWeeks: 24,
		},
	},
}

// Recommend builds reduction measures for the company's largest emission
// sources, ranked by estimated reduction.
func (p *Predictor) Recommend(emissionsByActivity map[string]float64) []model.Recommendation {
	type activityTotal struct {
		activity  model.ActivityType
		emissions float64
	}

	sorted := make([]activityTotal, 0, len(emissionsByActivity))
	for activity, emissions := range emissionsByActivity {
		sorted = append(sorted, activityTotal{activity: model.ActivityType(activity), emissions: emissions})
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].emissions > sorted[j].emissions })

	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	var recommendations []model.Recommendation
	for _, at := range sorted {
		templates, ok := reductionCatalogue[at.activity]
		if !ok {
			continue
		}
		for _, tmpl := range templates {
			reduction := at.emissions * tmpl.ReductionPercentage / 100
			recommendations = append(recommendations, model.Recommendation{
				ActivityType:        at.activity,
				CurrentEmissions:    at.emissions,
				Title:               tmpl.Title,
				Description:         tmpl.Description,
				EstimatedReduction:  reduction,
				ReductionPercentage: tmpl.ReductionPercentage,
				CostImpact:          tmpl.CostImpact,
				Difficulty:          tmpl.Difficulty,
				Priority:            priorityFor(reduction),
				ImplementationWeeks: tmpl.ImplementationWeeks,
			})
		}
	}

	sort.Slice(recommendations, func(i, j int) bool {
		return recommendations[i].EstimatedReduction > recommendations[j].EstimatedReduction
	})
	return recommendations
}

func priorityFor(reduction float64) string {
	switch {
	case reduction > 10000:
		return "high"
	case reduction > 1000:
		return "medium"
	default:
		return "low"
	}
}
