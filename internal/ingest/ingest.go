// Package ingest converts uploaded CSV and XLSX documents into canonical
// ActivityRecords. All header and field aliasing happens here, at the
// boundary; the calculation engine only ever sees canonical records.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/timeutil"
)

// columns maps canonical field names to the header aliases accepted for them.
var columns = map[string][]string{
	"activity_type": {"activity_type", "activity", "type", "category"},
	"amount":        {"amount", "quantity", "value", "qty"},
	"unit":          {"unit", "uom"},
	"country_code":  {"country_code", "country"},
	"sub_type":      {"sub_type", "subtype"},
	"scope":         {"scope", "emission_scope"},
	"date":          {"date", "created_at", "timestamp"},
	"description":   {"description", "name", "item"},
}

// headerIndex resolves a header row into canonical field -> column index.
func headerIndex(header []string) map[string]int {
	index := map[string]int{}
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for canonical, aliases := range columns {
			if _, taken := index[canonical]; taken {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					index[canonical] = i
					break
				}
			}
		}
	}
	return index
}

// recordFromRow builds an ActivityRecord from one data row, or reports the
// row as unusable. A missing or non-positive amount disqualifies the row;
// a missing date falls back to today.
func recordFromRow(row []string, index map[string]int, companyID uuid.UUID) (model.ActivityRecord, bool) {
	get := func(field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(get("amount"), ",", "."), 64)
	if err != nil || amount <= 0 {
		return model.ActivityRecord{}, false
	}

	activityType := parseActivityType(get("activity_type"))

	record := model.ActivityRecord{
		ID:           uuid.New(),
		CompanyID:    companyID,
		ActivityType: activityType,
		Scope:        parseScope(get("scope"), activityType),
		Amount:       amount,
		Unit:         get("unit"),
		CountryCode:  defaultString(get("country_code"), "SE"),
		SourceType:   model.SourceImport,
		Date:         timeutil.Parse(get("date")),
		CreatedAt:    time.Now().UTC(),
	}

	if sub := get("sub_type"); sub != "" {
		record.SubType = &sub
	}
	if desc := get("description"); desc != "" {
		record.Description = &desc
	}
	return record, true
}

func parseActivityType(raw string) model.ActivityType {
	typed, _ := model.ParseActivityType(raw)
	return typed
}

// parseScope accepts the forms ParseScope does; without one, the activity
// type implies its usual GHG Protocol scope.
func parseScope(raw string, activityType model.ActivityType) model.Scope {
	if scope, ok := model.ParseScope(raw); ok {
		return scope
	}
	return model.DefaultScopeFor(activityType)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
