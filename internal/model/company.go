package model

import (
	"time"

	"github.com/google/uuid"
)

type Company struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CountryCode   string    `json:"country_code"`
	EmployeeCount *int      `json:"employee_count,omitempty"`
	AnnualRevenue *float64  `json:"annual_revenue,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
