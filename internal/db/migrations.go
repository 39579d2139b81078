package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'emission_scope') THEN
			CREATE TYPE emission_scope AS ENUM ('scope_1', 'scope_2', 'scope_3');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		country_code VARCHAR(2) NOT NULL DEFAULT 'SE',
		employee_count INTEGER,
		annual_revenue NUMERIC(18,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS activity_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		company_id UUID NOT NULL REFERENCES companies(id),
		activity_type VARCHAR(64) NOT NULL,
		description TEXT,
		scope emission_scope NOT NULL,
		amount NUMERIC(18,6) NOT NULL CHECK (amount > 0),
		unit VARCHAR(32) NOT NULL,
		country_code VARCHAR(2) NOT NULL DEFAULT 'SE',
		sub_type VARCHAR(64),
		emission_factor NUMERIC(18,6),
		co2_emissions NUMERIC(18,6),
		source_type VARCHAR(32) NOT NULL DEFAULT 'manual_entry',
		date DATE NOT NULL,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_activity_records_company_date ON activity_records (company_id, date);`,
	`CREATE INDEX IF NOT EXISTS idx_activity_records_scope ON activity_records (scope);`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		company_id UUID NOT NULL REFERENCES companies(id),
		device_id VARCHAR(128) NOT NULL,
		power_kw NUMERIC(12,4) NOT NULL DEFAULT 0,
		emission_factor NUMERIC(12,6) NOT NULL DEFAULT 0,
		session_start TIMESTAMPTZ,
		last_analysis TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_sensors_company_device ON sensors (company_id, device_id);`,
	`CREATE TABLE IF NOT EXISTS sensor_activity (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		company_id UUID NOT NULL REFERENCES companies(id),
		device_id VARCHAR(128) NOT NULL,
		energy_kwh NUMERIC(18,6),
		hours NUMERIC(12,4),
		session_start TIMESTAMPTZ,
		session_end TIMESTAMPTZ,
		state VARCHAR(8),
		event_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_activity_company ON sensor_activity (company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_activity_session ON sensor_activity (session_start, session_end);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
