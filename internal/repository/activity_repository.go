package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karvio/emissions-service/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, record *model.ActivityRecord) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO activity_records
			(id, company_id, activity_type, description, scope, amount, unit,
			 country_code, sub_type, emission_factor, co2_emissions, source_type,
			 date, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.CompanyID, record.ActivityType, record.Description,
		record.Scope, record.Amount, record.Unit, record.CountryCode,
		record.SubType, record.EmissionFactor, record.CO2Emissions,
		record.SourceType, record.Date, record.Verified, record.CreatedAt,
	).Error
}

func (r *ActivityRepository) InsertBatch(ctx context.Context, records []model.ActivityRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			record := &records[i]
			if err := tx.Exec(`
				INSERT INTO activity_records
					(id, company_id, activity_type, description, scope, amount, unit,
					 country_code, sub_type, emission_factor, co2_emissions, source_type,
					 date, verified, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				record.ID, record.CompanyID, record.ActivityType, record.Description,
				record.Scope, record.Amount, record.Unit, record.CountryCode,
				record.SubType, record.EmissionFactor, record.CO2Emissions,
				record.SourceType, record.Date, record.Verified, record.CreatedAt,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ActivityRepository) ListByCompanyPeriod(
	ctx context.Context,
	companyID uuid.UUID,
	from, to time.Time,
) ([]model.ActivityRecord, error) {
	var rows []model.ActivityRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, company_id, activity_type, description, scope, amount, unit,
			country_code, sub_type, emission_factor, co2_emissions, source_type,
			date, verified, created_at
		FROM activity_records
		WHERE company_id = ?
			AND date >= ?
			AND date <= ?
		ORDER BY date ASC
	`, companyID, from, to).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ActivityRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.ActivityRecord, error) {
	var rows []model.ActivityRecord
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			id, company_id, activity_type, description, scope, amount, unit,
			country_code, sub_type, emission_factor, co2_emissions, source_type,
			date, verified, created_at
		FROM activity_records
		WHERE company_id = ?
		ORDER BY date ASC
	`, companyID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveCalculation persists the engine-computed factor and emissions so a
// record is only ever calculated once.
func (r *ActivityRepository) SaveCalculation(ctx context.Context, record *model.ActivityRecord) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE activity_records
		SET emission_factor = ?, co2_emissions = ?
		WHERE id = ? AND co2_emissions IS NULL
	`, record.EmissionFactor, record.CO2Emissions, record.ID).Error
}
