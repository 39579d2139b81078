package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karvio/emissions-service/internal/model"
)

type SensorRepository struct {
	db *gorm.DB
}

func NewSensorRepository(db *gorm.DB) *SensorRepository {
	return &SensorRepository{db: db}
}

func (r *SensorRepository) Insert(ctx context.Context, sensor *model.Sensor) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO sensors (id, company_id, device_id, power_kw, emission_factor, last_analysis, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		sensor.ID, sensor.CompanyID, sensor.DeviceID, sensor.PowerKW,
		sensor.EmissionFactor, sensor.LastAnalysis, sensor.CreatedAt,
	).Error
}

func (r *SensorRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Sensor, error) {
	var rows []model.Sensor
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_id, device_id, power_kw, emission_factor, session_start, last_analysis, created_at
		FROM sensors
		WHERE company_id = ?
		ORDER BY device_id ASC
	`, companyID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByDeviceID resolves a sensor by either its external device id or its
// canonical id serialized as text.
func (r *SensorRepository) GetByDeviceID(ctx context.Context, deviceID string) (*model.Sensor, error) {
	var sensor model.Sensor
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_id, device_id, power_kw, emission_factor, session_start, last_analysis, created_at
		FROM sensors
		WHERE device_id = ? OR id::text = ?
		LIMIT 1
	`, deviceID, deviceID).Scan(&sensor).Error; err != nil {
		return nil, err
	}
	if sensor.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &sensor, nil
}

func (r *SensorRepository) SetSessionStart(ctx context.Context, sensorID uuid.UUID, start *time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE sensors SET session_start = ? WHERE id = ?
	`, start, sensorID).Error
}

func (r *SensorRepository) InsertActivity(ctx context.Context, row *model.SensorActivityRow) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO sensor_activity
			(id, company_id, device_id, energy_kwh, hours, session_start, session_end, state, event_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		row.ID, row.CompanyID, row.DeviceID, row.EnergyKWh, row.Hours,
		row.SessionStart, row.SessionEnd, row.State, row.Timestamp, row.CreatedAt,
	).Error
}

// ListActivityByWindow over-fetches rows that may touch the window; the
// reconciler applies the exact overlap rule per row.
func (r *SensorRepository) ListActivityByWindow(
	ctx context.Context,
	companyID uuid.UUID,
	from, to time.Time,
) ([]model.SensorActivityRow, error) {
	var rows []model.SensorActivityRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, company_id, device_id, energy_kwh, hours, session_start, session_end, state, event_at, created_at
		FROM sensor_activity
		WHERE company_id = ?
			AND COALESCE(session_start, event_at, created_at) < ?
			AND COALESCE(session_end, session_start, event_at, created_at) >= ?
		ORDER BY COALESCE(session_start, event_at, created_at) ASC
	`, companyID, to, from).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
