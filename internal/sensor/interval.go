package sensor

import (
	"strings"
	"time"

	"github.com/karvio/emissions-service/internal/model"
)

// Window is the reconciliation window. Start is inclusive, End exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

type intervalKind int

const (
	kindEnergy intervalKind = iota
	kindDuration
	kindEvent
)

// interval is one activity row classified into exactly one of the three
// reconciliation shapes. Each row is inspected once, here; the reconciler
// only looks at the tag afterwards.
type interval struct {
	kind intervalKind

	energyKWh float64

	hours     float64
	start     time.Time
	end       time.Time
	hasBounds bool

	eventTime time.Time
	on        bool
}

// classify turns a raw row into an interval. Rows that fit none of the three
// shapes are unusable and reported as such, never fatal.
func classify(row model.SensorActivityRow) (interval, bool) {
	if row.EnergyKWh != nil {
		iv := interval{kind: kindEnergy, energyKWh: *row.EnergyKWh}
		iv.start, iv.end, iv.hasBounds = rowBounds(row)
		return iv, true
	}

	if row.SessionStart != nil && row.SessionEnd != nil && !row.SessionEnd.Before(*row.SessionStart) {
		return interval{
			kind:      kindDuration,
			start:     row.SessionStart.UTC(),
			end:       row.SessionEnd.UTC(),
			hasBounds: true,
		}, true
	}

	if row.Hours != nil && *row.Hours > 0 {
		iv := interval{kind: kindDuration, hours: *row.Hours}
		iv.start, iv.end, iv.hasBounds = rowBounds(row)
		return iv, true
	}

	if row.State != nil && row.Timestamp != nil {
		switch strings.ToUpper(strings.TrimSpace(*row.State)) {
		case "ON":
			return interval{kind: kindEvent, eventTime: row.Timestamp.UTC(), on: true}, true
		case "OFF":
			return interval{kind: kindEvent, eventTime: row.Timestamp.UTC(), on: false}, true
		}
	}

	return interval{}, false
}

// rowBounds derives the row's own interval for the window overlap test.
// Rows that carry no timestamp at all fall back to their storage time, so a
// bare energy report still lands in the period it was recorded in.
func rowBounds(row model.SensorActivityRow) (time.Time, time.Time, bool) {
	var start time.Time
	switch {
	case row.SessionStart != nil:
		start = row.SessionStart.UTC()
	case row.Timestamp != nil:
		start = row.Timestamp.UTC()
	default:
		start = row.CreatedAt.UTC()
	}

	end := start
	if row.SessionEnd != nil && row.SessionEnd.After(start) {
		end = row.SessionEnd.UTC()
	}
	return start, end, true
}

// overlaps reports whether the interval touches the window. A row starting
// before the window but ending inside it still counts.
func (iv interval) overlaps(w Window) bool {
	if iv.kind == kindEvent {
		// events participate in run reconstruction as long as they are not
		// entirely past the window; runs themselves are clamped later
		return iv.eventTime.Before(w.End)
	}
	if !iv.hasBounds {
		return true
	}
	return iv.start.Before(w.End) && !iv.end.Before(w.Start)
}

// clampHours returns the in-window fraction of a bounded interval, in hours.
func clampHours(start, end time.Time, w Window) float64 {
	lo := start
	if lo.Before(w.Start) {
		lo = w.Start
	}
	hi := end
	if hi.After(w.End) {
		hi = w.End
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo).Hours()
}
