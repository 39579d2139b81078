// Package forecast projects future emissions from historical records and
// flags records that deviate from a company's usual pattern.
package forecast

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/karvio/emissions-service/internal/model"
)

// ErrInsufficientData means the record set carries no calculated emissions to
// learn from. This is the one precondition the engine refuses to paper over.
var ErrInsufficientData = errors.New("insufficient emission data")

const (
	// assumed scope distribution of the projected total
	scope1Share = 0.3
	scope2Share = 0.4
	scope3Share = 0.3
)

type Predictor struct {
	log zerolog.Logger
}

func NewPredictor(log zerolog.Logger) *Predictor {
	return &Predictor{log: log}
}

type dailyPoint struct {
	day   time.Time
	value float64
}

// prepare aggregates calculated emissions by day, sorted chronologically.
func prepare(records []model.ActivityRecord) []dailyPoint {
	byDay := map[time.Time]float64{}
	for _, record := range records {
		if record.CO2Emissions == nil {
			continue
		}
		y, m, d := record.Date.UTC().Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		byDay[day] += *record.CO2Emissions
	}

	points := make([]dailyPoint, 0, len(byDay))
	for day, value := range byDay {
		points = append(points, dailyPoint{day: day, value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].day.Before(points[j].day) })
	return points
}

// Forecast fits a mean + linear trend + monthly seasonality model to the
// records and projects the next `months` months of daily emissions.
func (p *Predictor) Forecast(records []model.ActivityRecord, companyID uuid.UUID, months int) (model.Forecast, error) {
	points := prepare(records)
	if len(points) == 0 {
		return model.Forecast{}, ErrInsufficientData
	}
	if months <= 0 {
		months = 12
	}

	mean := meanOf(points)
	trend := slopeOf(points)
	seasonal := seasonalMeans(points)

	p.log.Info().
		Int("training_points", len(points)).
		Float64("daily_mean", mean).
		Float64("trend", trend).
		Msg("fitted emission forecast model")

	lastDay := points[len(points)-1].day
	forecastStart := lastDay.AddDate(0, 0, 1)
	horizon := months * 30

	var total float64
	predicted := make([]float64, 0, horizon)
	for i := 0; i < horizon; i++ {
		day := forecastStart.AddDate(0, 0, i)
		factor := 1.0
		if mean > 0 {
			if monthMean, ok := seasonal[day.Month()]; ok {
				factor = monthMean / mean
			}
		}
		value := (mean + trend*float64(i)) * factor
		if value < 0 {
			value = 0
		}
		predicted = append(predicted, value)
		total += value
	}

	return model.Forecast{
		CompanyID:           companyID,
		ForecastPeriodStart: forecastStart,
		ForecastPeriodEnd:   forecastStart.AddDate(0, 0, horizon),
		PredictedScope1:     total * scope1Share,
		PredictedScope2:     total * scope2Share,
		PredictedScope3:     total * scope3Share,
		PredictedTotal:      total,
		ConfidenceLower:     total * 0.8,
		ConfidenceUpper:     total * 1.2,
		ModelType:           "trend_seasonal",
		TrainingDataPoints:  len(points),
		Trend:               detectTrend(predicted),
		SeasonalPatterns:    seasonalPatterns(points),
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

func meanOf(points []dailyPoint) float64 {
	var sum float64
	for _, pt := range points {
		sum += pt.value
	}
	return sum / float64(len(points))
}

// slopeOf is a least-squares fit of value against sample index.
func slopeOf(points []dailyPoint) float64 {
	n := float64(len(points))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, pt := range points {
		x := float64(i)
		sumX += x
		sumY += pt.value
		sumXY += x * pt.value
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func seasonalMeans(points []dailyPoint) map[time.Month]float64 {
	sums := map[time.Month]float64{}
	counts := map[time.Month]int{}
	for _, pt := range points {
		month := pt.day.Month()
		sums[month] += pt.value
		counts[month]++
	}

	means := make(map[time.Month]float64, len(sums))
	for month, sum := range sums {
		means[month] = sum / float64(counts[month])
	}
	return means
}

// detectTrend classifies the projected series; the threshold is a 5% change
// over the whole horizon.
func detectTrend(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	slope := slopeOf(pointsFromValues(values))
	threshold := mean * 0.05 / float64(len(values))

	switch {
	case slope > threshold:
		return "increasing"
	case slope < -threshold:
		return "decreasing"
	default:
		return "stable"
	}
}

func pointsFromValues(values []float64) []dailyPoint {
	points := make([]dailyPoint, len(values))
	for i, v := range values {
		points[i] = dailyPoint{value: v}
	}
	return points
}

func seasonalPatterns(points []dailyPoint) []string {
	if len(points) <= 12 {
		return nil
	}

	means := seasonalMeans(points)
	var maxMonth, minMonth time.Month
	maxVal := math.Inf(-1)
	minVal := math.Inf(1)
	for month, value := range means {
		if value > maxVal {
			maxVal, maxMonth = value, month
		}
		if value < minVal {
			minVal, minMonth = value, month
		}
	}

	return []string{
		"Peak emissions in " + maxMonth.String(),
		"Lowest emissions in " + minMonth.String(),
	}
}
