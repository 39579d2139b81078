package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karvio/emissions-service/internal/model"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Insert(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO companies (id, name, country_code, employee_count, annual_revenue, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		company.ID, company.Name, company.CountryCode,
		company.EmployeeCount, company.AnnualRevenue, company.CreatedAt,
	).Error
}

func (r *CompanyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, country_code, employee_count, annual_revenue, created_at
		FROM companies
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&company).Error; err != nil {
		return nil, err
	}
	if company.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &company, nil
}
