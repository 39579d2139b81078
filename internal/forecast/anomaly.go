package forecast

import (
	"fmt"
	"math"

	"github.com/karvio/emissions-service/internal/model"
)

const (
	anomalyMinPoints   = 10
	anomalyThreshold   = 2.0 // z-score at which a record is flagged
	anomalySevereScore = 3.0
)

// DetectAnomalies flags records whose emissions deviate strongly from the
// set's own distribution, using a z-score against mean and standard deviation.
func (p *Predictor) DetectAnomalies(records []model.ActivityRecord) ([]model.Anomaly, error) {
	values := make([]float64, 0, len(records))
	flagged := make([]model.ActivityRecord, 0, len(records))
	for _, record := range records {
		if record.CO2Emissions == nil {
			continue
		}
		values = append(values, *record.CO2Emissions)
		flagged = append(flagged, record)
	}

	if len(values) < anomalyMinPoints {
		return nil, ErrInsufficientData
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(values)))
	if stddev == 0 {
		return nil, nil
	}

	var anomalies []model.Anomaly
	for i, v := range values {
		z := math.Abs(v-mean) / stddev
		if z < anomalyThreshold {
			continue
		}
		record := flagged[i]
		severity := "medium"
		if z >= anomalySevereScore {
			severity = "high"
		}
		anomalies = append(anomalies, model.Anomaly{
			Date:         record.Date,
			ActivityType: record.ActivityType,
			Emissions:    v,
			Score:        z,
			Severity:     severity,
			Description:  fmt.Sprintf("Unusual %s emissions detected", record.ActivityType),
		})
	}

	p.log.Info().
		Int("anomalies", len(anomalies)).
		Int("records", len(values)).
		Msg("anomaly detection completed")

	return anomalies, nil
}
