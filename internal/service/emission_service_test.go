package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/karvio/emissions-service/internal/calc"
	"github.com/karvio/emissions-service/internal/config"
	"github.com/karvio/emissions-service/internal/factor"
	"github.com/karvio/emissions-service/internal/forecast"
	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/sensor"
)

type fakeActivityStore struct {
	records []model.ActivityRecord
	saved   int
}

func (s *fakeActivityStore) Insert(ctx context.Context, record *model.ActivityRecord) error {
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeActivityStore) InsertBatch(ctx context.Context, records []model.ActivityRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *fakeActivityStore) ListByCompanyPeriod(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]model.ActivityRecord, error) {
	var out []model.ActivityRecord
	for _, record := range s.records {
		if record.CompanyID != companyID {
			continue
		}
		if record.Date.Before(from) || record.Date.After(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *fakeActivityStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.ActivityRecord, error) {
	var out []model.ActivityRecord
	for _, record := range s.records {
		if record.CompanyID == companyID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *fakeActivityStore) SaveCalculation(ctx context.Context, record *model.ActivityRecord) error {
	s.saved++
	return nil
}

type fakeSensorStore struct {
	sensors []model.Sensor
	rows    []model.SensorActivityRow
}

func (s *fakeSensorStore) Insert(ctx context.Context, sensorRow *model.Sensor) error {
	s.sensors = append(s.sensors, *sensorRow)
	return nil
}

func (s *fakeSensorStore) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Sensor, error) {
	var out []model.Sensor
	for _, row := range s.sensors {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeSensorStore) GetByDeviceID(ctx context.Context, deviceID string) (*model.Sensor, error) {
	for i := range s.sensors {
		if s.sensors[i].DeviceID == deviceID || s.sensors[i].ID.String() == deviceID {
			found := s.sensors[i]
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeSensorStore) SetSessionStart(ctx context.Context, sensorID uuid.UUID, start *time.Time) error {
	for i := range s.sensors {
		if s.sensors[i].ID == sensorID {
			s.sensors[i].SessionStart = start
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeSensorStore) InsertActivity(ctx context.Context, row *model.SensorActivityRow) error {
	s.rows = append(s.rows, *row)
	return nil
}

func (s *fakeSensorStore) ListActivityByWindow(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]model.SensorActivityRow, error) {
	var out []model.SensorActivityRow
	for _, row := range s.rows {
		if row.CompanyID == companyID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeCompanyStore struct {
	companies map[uuid.UUID]model.Company
}

func (s *fakeCompanyStore) Insert(ctx context.Context, company *model.Company) error {
	if s.companies == nil {
		s.companies = map[uuid.UUID]model.Company{}
	}
	s.companies[company.ID] = *company
	return nil
}

func (s *fakeCompanyStore) Get(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	company, ok := s.companies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &company, nil
}

type fixture struct {
	svc        *EmissionService
	activities *fakeActivityStore
	sensors    *fakeSensorStore
	companies  *fakeCompanyStore
}

func newFixture() *fixture {
	log := zerolog.Nop()
	registry := factor.NewRegistry(log)
	activities := &fakeActivityStore{}
	sensors := &fakeSensorStore{}
	companies := &fakeCompanyStore{}

	svc := NewEmissionService(
		activities,
		sensors,
		companies,
		calc.NewCalculator(registry, calc.DefaultThresholds(), log),
		sensor.NewReconciler(log),
		forecast.NewPredictor(log),
		registry,
		factor.NewHTTPFetcher(),
		nil,
		&config.Config{},
		log,
	)
	return &fixture{svc: svc, activities: activities, sensors: sensors, companies: companies}
}

func TestCreateActivityCalculatesEmissions(t *testing.T) {
	fx := newFixture()

	record, err := fx.svc.CreateActivity(context.Background(), CreateActivityInput{
		CompanyID:    uuid.New(),
		ActivityType: model.ActivityElectricity,
		Scope:        model.Scope2,
		Amount:       1000,
		Unit:         "kWh",
		CountryCode:  "SE",
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotNil(t, record.CO2Emissions)
	assert.InDelta(t, 13.0, *record.CO2Emissions, 1e-6)
	assert.Len(t, fx.activities.records, 1)
}

func TestCreateActivityValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.svc.CreateActivity(ctx, CreateActivityInput{
		ActivityType: model.ActivityElectricity, Amount: 10, Unit: "kWh",
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "missing company")

	_, err = fx.svc.CreateActivity(ctx, CreateActivityInput{
		CompanyID: uuid.New(), ActivityType: model.ActivityElectricity, Amount: 0, Unit: "kWh",
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "non-positive amount")
}

func TestImportActivitiesCSV(t *testing.T) {
	fx := newFixture()
	companyID := uuid.New()

	data := []byte("activity_type,amount,unit,country_code,date\nelectricity,1000,kWh,SE,2026-03-15\nelectricity,-1,kWh,SE,2026-03-15\n")

	result, err := fx.svc.ImportActivities(context.Background(), companyID, "energy.csv", data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, fx.activities.records, 1)
	require.NotNil(t, fx.activities.records[0].CO2Emissions)
	assert.InDelta(t, 13.0, *fx.activities.records[0].CO2Emissions, 1e-6)
}

func TestImportActivitiesUnsupportedFormat(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.ImportActivities(context.Background(), uuid.New(), "report.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOverviewCombinesRecordsAndSensors(t *testing.T) {
	fx := newFixture()
	companyID := uuid.New()
	ctx := context.Background()

	_, err := fx.svc.CreateActivity(ctx, CreateActivityInput{
		CompanyID:    companyID,
		ActivityType: model.ActivityElectricity,
		Scope:        model.Scope2,
		Amount:       1000,
		Unit:         "kWh",
		CountryCode:  "SE",
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	created, err := fx.svc.CreateSensor(ctx, CreateSensorInput{
		CompanyID: companyID, DeviceID: "press-7", PowerKW: 2.0, EmissionFactor: 0.5,
	})
	require.NoError(t, err)

	energy := 10.0
	fx.sensors.rows = append(fx.sensors.rows, model.SensorActivityRow{
		ID:        uuid.New(),
		CompanyID: companyID,
		DeviceID:  created.DeviceID,
		EnergyKWh: &energy,
		CreatedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})

	overview, err := fx.svc.Overview(ctx, companyID, "2026-03", "2026-04")
	require.NoError(t, err)

	assert.InDelta(t, 13.0, overview.Summary.TotalEmissions, 1e-6)
	assert.InDelta(t, 5.0, overview.SensorEmissions, 1e-6)
	assert.InDelta(t, 18.0, overview.CombinedTotal, 1e-6)
	require.Len(t, overview.SensorSummaries, 1)
	assert.Equal(t, "press-7", overview.SensorSummaries[0].DeviceID)
}

func TestOverviewPreviousPeriodChange(t *testing.T) {
	fx := newFixture()
	companyID := uuid.New()
	ctx := context.Background()

	for _, date := range []time.Time{
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	} {
		_, err := fx.svc.CreateActivity(ctx, CreateActivityInput{
			CompanyID:    companyID,
			ActivityType: model.ActivityElectricity,
			Scope:        model.Scope2,
			Amount:       1000,
			Unit:         "kWh",
			CountryCode:  "SE",
			Date:         date,
		})
		require.NoError(t, err)
	}

	overview, err := fx.svc.Overview(ctx, companyID, "2026-03", "2026-04")
	require.NoError(t, err)

	require.NotNil(t, overview.Summary.PreviousPeriodTotal)
	assert.InDelta(t, 13.0, *overview.Summary.PreviousPeriodTotal, 1e-6)
	require.NotNil(t, overview.Summary.ChangePercentage)
	assert.InDelta(t, 0.0, *overview.Summary.ChangePercentage, 1e-6)
}

func TestIntensityMetrics(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	revenue := 1000000.0
	employees := 10
	company, err := fx.svc.CreateCompany(ctx, CreateCompanyInput{
		Name:          "Karv Industries",
		AnnualRevenue: &revenue,
		EmployeeCount: &employees,
	})
	require.NoError(t, err)
	assert.Equal(t, "SE", company.CountryCode)

	_, err = fx.svc.CreateActivity(ctx, CreateActivityInput{
		CompanyID:    company.ID,
		ActivityType: model.ActivityElectricity,
		Scope:        model.Scope2,
		Amount:       1000,
		Unit:         "kWh",
		CountryCode:  "SE",
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	metrics, err := fx.svc.IntensityMetrics(ctx, company.ID, "2026-03", "2026-04", nil)
	require.NoError(t, err)
	assert.InDelta(t, 13.0/1000000.0, metrics["emissions_per_revenue"], 1e-12)
	assert.InDelta(t, 1.3, metrics["emissions_per_employee"], 1e-9)
	_, ok := metrics["emissions_per_unit"]
	assert.False(t, ok)
}

func TestIntensityMetricsUnknownCompany(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.IntensityMetrics(context.Background(), uuid.New(), "", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSensorSessionLifecycle(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	created, err := fx.svc.CreateSensor(ctx, CreateSensorInput{
		CompanyID: uuid.New(), DeviceID: "pump-1", PowerKW: 1.5, EmissionFactor: 0.3,
	})
	require.NoError(t, err)

	// ending without a start is a conflict
	_, err = fx.svc.EndSession(ctx, "pump-1")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	started, err := fx.svc.StartSession(ctx, "pump-1")
	require.NoError(t, err)
	require.NotNil(t, started.SessionStart)

	ended, err := fx.svc.EndSession(ctx, "pump-1")
	require.NoError(t, err)
	assert.Nil(t, ended.SessionStart)

	require.Len(t, fx.sensors.rows, 1)
	row := fx.sensors.rows[0]
	assert.Equal(t, created.ID.String(), row.DeviceID)
	require.NotNil(t, row.Hours)
	require.NotNil(t, row.SessionStart)
	require.NotNil(t, row.SessionEnd)

	// unknown device
	_, err = fx.svc.StartSession(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForecastThroughService(t *testing.T) {
	fx := newFixture()
	companyID := uuid.New()
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		_, err := fx.svc.CreateActivity(ctx, CreateActivityInput{
			CompanyID:    companyID,
			ActivityType: model.ActivityElectricity,
			Scope:        model.Scope2,
			Amount:       1000,
			Unit:         "kWh",
			CountryCode:  "SE",
			Date:         start.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	result, err := fx.svc.Forecast(ctx, companyID, 3)
	require.NoError(t, err)
	assert.Equal(t, 30, result.TrainingDataPoints)
	assert.Greater(t, result.PredictedTotal, 0.0)

	_, err = fx.svc.Forecast(ctx, uuid.New(), 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
