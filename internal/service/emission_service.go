package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/karvio/emissions-service/internal/calc"
	"github.com/karvio/emissions-service/internal/config"
	"github.com/karvio/emissions-service/internal/factor"
	"github.com/karvio/emissions-service/internal/forecast"
	"github.com/karvio/emissions-service/internal/ingest"
	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/sensor"
	"github.com/karvio/emissions-service/internal/timeutil"
)

// ActivityStore is the narrow persistence surface the service needs for
// activity records; the engine itself never touches storage.
type ActivityStore interface {
	Insert(ctx context.Context, record *model.ActivityRecord) error
	InsertBatch(ctx context.Context, records []model.ActivityRecord) error
	ListByCompanyPeriod(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]model.ActivityRecord, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.ActivityRecord, error)
	SaveCalculation(ctx context.Context, record *model.ActivityRecord) error
}

type SensorStore interface {
	Insert(ctx context.Context, sensor *model.Sensor) error
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Sensor, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*model.Sensor, error)
	SetSessionStart(ctx context.Context, sensorID uuid.UUID, start *time.Time) error
	InsertActivity(ctx context.Context, row *model.SensorActivityRow) error
	ListActivityByWindow(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]model.SensorActivityRow, error)
}

type CompanyStore interface {
	Insert(ctx context.Context, company *model.Company) error
	Get(ctx context.Context, id uuid.UUID) (*model.Company, error)
}

type EmissionService struct {
	activities ActivityStore
	sensors    SensorStore
	companies  CompanyStore

	calculator *calc.Calculator
	reconciler *sensor.Reconciler
	predictor  *forecast.Predictor
	registry   *factor.Registry

	fetcher     factor.Fetcher
	factorStore factor.Store
	sources     []string

	log zerolog.Logger
}

func NewEmissionService(
	activities ActivityStore,
	sensors SensorStore,
	companies CompanyStore,
	calculator *calc.Calculator,
	reconciler *sensor.Reconciler,
	predictor *forecast.Predictor,
	registry *factor.Registry,
	fetcher factor.Fetcher,
	factorStore factor.Store,
	cfg *config.Config,
	log zerolog.Logger,
) *EmissionService {
	return &EmissionService{
		activities:  activities,
		sensors:     sensors,
		companies:   companies,
		calculator:  calculator,
		reconciler:  reconciler,
		predictor:   predictor,
		registry:    registry,
		fetcher:     fetcher,
		factorStore: factorStore,
		sources:     cfg.Factors.Sources,
		log:         log,
	}
}

// ---- companies ----

type CreateCompanyInput struct {
	Name          string
	CountryCode   string
	EmployeeCount *int
	AnnualRevenue *float64
}

func (s *EmissionService) CreateCompany(ctx context.Context, input CreateCompanyInput) (*model.Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	country := strings.ToUpper(strings.TrimSpace(input.CountryCode))
	if country == "" {
		country = "SE"
	}

	company := &model.Company{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		CountryCode:   country,
		EmployeeCount: input.EmployeeCount,
		AnnualRevenue: input.AnnualRevenue,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.companies.Insert(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *EmissionService) GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	company, err := s.companies.Get(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return company, nil
}

// ---- activities ----

type CreateActivityInput struct {
	CompanyID    uuid.UUID
	ActivityType model.ActivityType
	Scope        model.Scope
	Amount       float64
	Unit         string
	CountryCode  string
	SubType      *string
	Description  *string
	Date         time.Time
	Verified     bool
	SourceType   model.DataSource
}

func (s *EmissionService) CreateActivity(ctx context.Context, input CreateActivityInput) (*model.ActivityRecord, error) {
	if input.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		input.Date = timeutil.StartOfDay(time.Now().UTC())
	}
	if input.CountryCode == "" {
		input.CountryCode = "SE"
	}
	if input.SourceType == "" {
		input.SourceType = model.SourceManualEntry
	}

	record := &model.ActivityRecord{
		ID:           uuid.New(),
		CompanyID:    input.CompanyID,
		ActivityType: input.ActivityType,
		Description:  input.Description,
		Scope:        input.Scope,
		Amount:       input.Amount,
		Unit:         input.Unit,
		CountryCode:  input.CountryCode,
		SubType:      input.SubType,
		SourceType:   input.SourceType,
		Date:         input.Date,
		Verified:     input.Verified,
		CreatedAt:    time.Now().UTC(),
	}
	s.calculator.CalculateForRecord(record)

	if err := s.activities.Insert(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ImportActivities parses an uploaded CSV or XLSX document, calculates each
// usable row and stores the batch. Malformed rows are skipped, not fatal.
func (s *EmissionService) ImportActivities(ctx context.Context, companyID uuid.UUID, fileName string, data []byte) (*ImportResult, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}

	var (
		records []model.ActivityRecord
		skipped int
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		records, skipped, err = ingest.ParseCSV(data, companyID)
	case ".xlsx":
		records, skipped, err = ingest.ParseXLSX(data, companyID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileName)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.calculator.CalculateBatch(records)
	if len(records) > 0 {
		if err := s.activities.InsertBatch(ctx, records); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Str("file", fileName).
		Int("imported", len(records)).
		Int("skipped", skipped).
		Msg("activity import completed")

	return &ImportResult{Imported: len(records), Skipped: skipped}, nil
}

func (s *EmissionService) ListActivities(ctx context.Context, companyID uuid.UUID, startRaw, endRaw string) ([]model.ActivityRecord, error) {
	window := s.resolveWindow(startRaw, endRaw)
	return s.activities.ListByCompanyPeriod(ctx, companyID, window.Start, window.End)
}

// ---- summaries ----

// Overview merges the invoice-derived period summary with the reconciled
// sensor estimate for the same window.
func (s *EmissionService) Overview(ctx context.Context, companyID uuid.UUID, startRaw, endRaw string) (*model.CompanyOverview, error) {
	if companyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	window := s.resolveWindow(startRaw, endRaw)

	records, err := s.activities.ListByCompanyPeriod(ctx, companyID, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	s.calculator.CalculateBatch(records)
	s.persistCalculations(ctx, records)

	previousTotal := s.previousPeriodTotal(ctx, companyID, window)
	summary := s.calculator.Summarize(records, companyID, window.Start, window.End, previousTotal)

	overview := &model.CompanyOverview{
		Summary:         summary,
		SensorSummaries: []model.SensorSummary{},
	}

	sensors, err := s.sensors.ListByCompany(ctx, companyID)
	if err != nil {
		s.log.Warn().Err(err).Msg("sensor lookup failed, overview continues without telemetry")
		sensors = nil
	}
	if len(sensors) > 0 {
		rows, err := s.sensors.ListActivityByWindow(ctx, companyID, window.Start, window.End)
		if err != nil {
			s.log.Warn().Err(err).Msg("sensor activity lookup failed, overview continues without telemetry")
		} else {
			result := s.reconciler.Reconcile(sensors, rows, sensor.Window{Start: window.Start, End: window.End})
			overview.SensorEmissions = result.TotalEmissionsKg
			if result.Sensors != nil {
				overview.SensorSummaries = result.Sensors
			}
		}
	}

	overview.CombinedTotal = summary.TotalEmissions + overview.SensorEmissions
	return overview, nil
}

func (s *EmissionService) IntensityMetrics(ctx context.Context, companyID uuid.UUID, startRaw, endRaw string, productionVolume *float64) (map[string]float64, error) {
	company, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	overview, err := s.Overview(ctx, companyID, startRaw, endRaw)
	if err != nil {
		return nil, err
	}

	return s.calculator.IntensityMetrics(
		overview.CombinedTotal,
		company.AnnualRevenue,
		company.EmployeeCount,
		productionVolume,
	), nil
}

// previousPeriodTotal sums calculated emissions over the window of equal
// length immediately before this one. Best effort; a failed lookup just
// leaves the comparison out.
func (s *EmissionService) previousPeriodTotal(ctx context.Context, companyID uuid.UUID, window sensor.Window) *float64 {
	length := window.End.Sub(window.Start)
	prevStart := window.Start.Add(-length)
	prevEnd := window.Start

	records, err := s.activities.ListByCompanyPeriod(ctx, companyID, prevStart, prevEnd)
	if err != nil || len(records) == 0 {
		return nil
	}

	summary := s.calculator.Summarize(records, companyID, prevStart, prevEnd, nil)
	if summary.DataPointsCount == 0 {
		return nil
	}
	total := summary.TotalEmissions
	return &total
}

func (s *EmissionService) persistCalculations(ctx context.Context, records []model.ActivityRecord) {
	for i := range records {
		record := &records[i]
		if record.CO2Emissions == nil {
			continue
		}
		if err := s.activities.SaveCalculation(ctx, record); err != nil {
			s.log.Warn().Err(err).Str("record_id", record.ID.String()).Msg("failed to persist calculation")
		}
	}
}

// resolveWindow turns the loosely formatted period parameters into a concrete
// window. Without parameters the current calendar month is used; an end not
// after the start extends the window by one month.
func (s *EmissionService) resolveWindow(startRaw, endRaw string) sensor.Window {
	if strings.TrimSpace(startRaw) == "" && strings.TrimSpace(endRaw) == "" {
		start, end := timeutil.MonthWindow(time.Now().UTC())
		return sensor.Window{Start: start, End: end}
	}

	start := timeutil.Parse(startRaw)
	var end time.Time
	if parsed, ok := timeutil.TryParse(endRaw); ok {
		end = parsed
	}
	if !end.After(start) {
		end = start.AddDate(0, 1, 0)
	}
	return sensor.Window{Start: start, End: end}
}

// ---- sensors ----

type CreateSensorInput struct {
	CompanyID      uuid.UUID
	DeviceID       string
	PowerKW        float64
	EmissionFactor float64
}

func (s *EmissionService) CreateSensor(ctx context.Context, input CreateSensorInput) (*model.Sensor, error) {
	if input.CompanyID == uuid.Nil {
		return nil, fmt.Errorf("%w: company_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.DeviceID) == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}

	sensorRow := &model.Sensor{
		ID:             uuid.New(),
		CompanyID:      input.CompanyID,
		DeviceID:       strings.TrimSpace(input.DeviceID),
		PowerKW:        input.PowerKW,
		EmissionFactor: input.EmissionFactor,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.sensors.Insert(ctx, sensorRow); err != nil {
		return nil, err
	}
	return sensorRow, nil
}

func (s *EmissionService) ListSensors(ctx context.Context, companyID uuid.UUID) ([]model.Sensor, error) {
	return s.sensors.ListByCompany(ctx, companyID)
}

// StartSession stamps the session start on the sensor. Starting twice simply
// moves the stamp; the original device firmware retries liberally.
func (s *EmissionService) StartSession(ctx context.Context, deviceID string) (*model.Sensor, error) {
	found, err := s.findSensor(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.sensors.SetSessionStart(ctx, found.ID, &now); err != nil {
		return nil, err
	}
	found.SessionStart = &now
	return found, nil
}

// EndSession closes the open session: a duration activity row is stored and
// the session stamp cleared.
func (s *EmissionService) EndSession(ctx context.Context, deviceID string) (*model.Sensor, error) {
	found, err := s.findSensor(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if found.SessionStart == nil {
		return nil, ErrNoActiveSession
	}

	now := time.Now().UTC()
	start := found.SessionStart.UTC()
	hours := now.Sub(start).Hours()

	row := &model.SensorActivityRow{
		ID:           uuid.New(),
		CompanyID:    found.CompanyID,
		DeviceID:     found.ID.String(),
		Hours:        &hours,
		SessionStart: &start,
		SessionEnd:   &now,
		CreatedAt:    now,
	}
	if err := s.sensors.InsertActivity(ctx, row); err != nil {
		return nil, err
	}
	if err := s.sensors.SetSessionStart(ctx, found.ID, nil); err != nil {
		return nil, err
	}
	found.SessionStart = nil
	return found, nil
}

func (s *EmissionService) findSensor(ctx context.Context, deviceID string) (*model.Sensor, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}
	found, err := s.sensors.GetByDeviceID(ctx, deviceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return found, nil
}

// ---- emission factors ----

func (s *EmissionService) UnitFactors() map[string]float64 {
	return s.registry.UnitFactors()
}

func (s *EmissionService) RefreshFactors(ctx context.Context) map[string]float64 {
	return s.registry.Refresh(ctx, s.fetcher, s.factorStore, s.sources)
}

// ---- forecasting ----

func (s *EmissionService) Forecast(ctx context.Context, companyID uuid.UUID, months int) (*model.Forecast, error) {
	records, err := s.activities.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	s.calculator.CalculateBatch(records)

	result, err := s.predictor.Forecast(records, companyID, months)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EmissionService) Anomalies(ctx context.Context, companyID uuid.UUID) ([]model.Anomaly, error) {
	records, err := s.activities.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	s.calculator.CalculateBatch(records)
	return s.predictor.DetectAnomalies(records)
}

func (s *EmissionService) Recommendations(ctx context.Context, companyID uuid.UUID, startRaw, endRaw string) ([]model.Recommendation, error) {
	overview, err := s.Overview(ctx, companyID, startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	return s.predictor.Recommend(overview.Summary.EmissionsByActivity), nil
}
