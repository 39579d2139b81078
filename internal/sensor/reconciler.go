// Package sensor reconciles irregular, possibly overlapping device telemetry
// into a deduplicated per-device energy and emissions estimate for a window.
package sensor

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/karvio/emissions-service/internal/model"
)

type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Result is one reconciliation pass over a company's telemetry.
type Result struct {
	TotalEmissionsKg float64               `json:"total_emissions_kg"`
	Sensors          []model.SensorSummary `json:"sensors"`
}

// Reconcile estimates energy and emissions per sensor for the window.
//
// Rows referencing a sensor by either its canonical ID or its external device
// ID resolve to the same sensor, so inconsistently keyed telemetry is never
// counted twice. Per sensor exactly one method is used, in preference order:
// explicit energy reports, then duration sessions, then ON/OFF reconstruction
// (the latter only when the rated power is known). Durations are clamped to
// the window; a run still open at the window's end is closed there. Rows that
// fit no shape, or that reference an unknown device, are skipped; a sensor
// with no usable rows is absent from the result.
func (r *Reconciler) Reconcile(sensors []model.Sensor, rows []model.SensorActivityRow, window Window) Result {
	byIdentifier := make(map[string]*model.Sensor, len(sensors)*2)
	for i := range sensors {
		s := &sensors[i]
		byIdentifier[s.ID.String()] = s
		if s.DeviceID != "" {
			byIdentifier[s.DeviceID] = s
		}
	}

	grouped := map[string][]interval{}
	for _, row := range rows {
		s, ok := byIdentifier[row.DeviceID]
		if !ok {
			r.log.Debug().Str("device_id", row.DeviceID).Msg("activity row for unknown sensor dropped")
			continue
		}
		iv, usable := classify(row)
		if !usable {
			r.log.Debug().Str("device_id", row.DeviceID).Msg("unparseable activity row skipped")
			continue
		}
		if !iv.overlaps(window) {
			continue
		}
		grouped[s.ID.String()] = append(grouped[s.ID.String()], iv)
	}

	result := Result{}
	for key, intervals := range grouped {
		s := byIdentifier[key]
		summary, ok := r.reconcileSensor(s, intervals, window)
		if !ok {
			continue
		}
		result.TotalEmissionsKg += summary.EmissionsKg
		result.Sensors = append(result.Sensors, summary)
	}

	sort.Slice(result.Sensors, func(i, j int) bool {
		return result.Sensors[i].DeviceID < result.Sensors[j].DeviceID
	})
	result.TotalEmissionsKg = round6(result.TotalEmissionsKg)
	return result
}

func (r *Reconciler) reconcileSensor(s *model.Sensor, intervals []interval, window Window) (model.SensorSummary, bool) {
	var energies, durations, events []interval
	for _, iv := range intervals {
		switch iv.kind {
		case kindEnergy:
			energies = append(energies, iv)
		case kindDuration:
			durations = append(durations, iv)
		case kindEvent:
			events = append(events, iv)
		}
	}

	var energyKWh, onHours float64
	cycles := 0

	switch {
	case len(energies) > 0:
		for _, iv := range energies {
			energyKWh += iv.energyKWh
		}

	case len(durations) > 0:
		for _, iv := range durations {
			hours := iv.hours
			if iv.hasBounds && iv.end.After(iv.start) {
				hours = clampHours(iv.start, iv.end, window)
			}
			if hours <= 0 {
				continue
			}
			onHours += hours
			cycles++
		}
		energyKWh = onHours * s.PowerKW

	case len(events) > 0 && s.PowerKW > 0:
		onHours, cycles = reconstructRuns(events, window)
		energyKWh = onHours * s.PowerKW

	default:
		return model.SensorSummary{}, false
	}

	emissions := energyKWh * s.EmissionFactor
	return model.SensorSummary{
		SensorID:    s.ID,
		DeviceID:    s.DeviceID,
		EnergyKWh:   round6(energyKWh),
		EmissionsKg: round6(emissions),
		Cycles:      cycles,
		OnHours:     round4(onHours),
	}, true
}

// reconstructRuns walks the ON/OFF events chronologically, accumulating the
// in-window duration of each ON run. Repeated ON events extend the open run;
// a run still open at the end of the window is closed at the window boundary.
func reconstructRuns(events []interval, window Window) (float64, int) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].eventTime.Before(events[j].eventTime)
	})

	var onHours float64
	cycles := 0
	var onSince *interval

	for i := range events {
		ev := &events[i]
		if ev.on {
			if onSince == nil {
				onSince = ev
			}
			continue
		}
		if onSince != nil {
			onHours += clampHours(onSince.eventTime, ev.eventTime, window)
			onSince = nil
			cycles++
		}
	}
	if onSince != nil {
		onHours += clampHours(onSince.eventTime, window.End, window)
	}
	return onHours, cycles
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
