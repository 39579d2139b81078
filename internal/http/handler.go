package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/karvio/emissions-service/internal/model"
	"github.com/karvio/emissions-service/internal/service"
	"github.com/karvio/emissions-service/internal/timeutil"
)

const maxUploadBytes = 16 << 20

type Handler struct {
	emissions *service.EmissionService
	log       zerolog.Logger
}

func NewHandler(emissions *service.EmissionService, log zerolog.Logger) *Handler {
	return &Handler{emissions: emissions, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", h.health)

	api := router.Group("/api/v1")

	api.POST("/companies", h.createCompany)
	api.GET("/companies/:id", h.getCompany)
	api.GET("/companies/:id/overview", h.overview)
	api.GET("/companies/:id/intensity", h.intensityMetrics)
	api.GET("/companies/:id/forecast", h.forecastEmissions)
	api.GET("/companies/:id/anomalies", h.anomalies)
	api.GET("/companies/:id/recommendations", h.recommendations)

	api.POST("/activities", h.createActivity)
	api.GET("/companies/:id/activities", h.listActivities)
	api.POST("/companies/:id/activities/import", h.importActivities)

	api.POST("/sensors", h.createSensor)
	api.GET("/companies/:id/sensors", h.listSensors)
	api.POST("/sensors/:device_id/session/start", h.startSession)
	api.POST("/sensors/:device_id/session/end", h.endSession)

	api.GET("/factors/units", h.unitFactors)
	api.POST("/factors/refresh", h.refreshFactors)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createCompanyRequest struct {
	Name          string   `json:"name" binding:"required"`
	CountryCode   string   `json:"country_code"`
	EmployeeCount *int     `json:"employee_count"`
	AnnualRevenue *float64 `json:"annual_revenue"`
}

func (h *Handler) createCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.emissions.CreateCompany(c.Request.Context(), service.CreateCompanyInput{
		Name:          req.Name,
		CountryCode:   req.CountryCode,
		EmployeeCount: req.EmployeeCount,
		AnnualRevenue: req.AnnualRevenue,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *Handler) getCompany(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	company, err := h.emissions.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

type createActivityRequest struct {
	CompanyID    string  `json:"company_id" binding:"required"`
	ActivityType string  `json:"activity_type" binding:"required"`
	Scope        string  `json:"scope"`
	Amount       float64 `json:"amount" binding:"required"`
	Unit         string  `json:"unit" binding:"required"`
	CountryCode  string  `json:"country_code"`
	SubType      *string `json:"sub_type"`
	Description  *string `json:"description"`
	Date         string  `json:"date"`
	Verified     bool    `json:"verified"`
	SourceType   string  `json:"source_type"`
}

func (h *Handler) createActivity(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	companyID, err := uuid.Parse(strings.TrimSpace(req.CompanyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}

	activityType, ok := model.ParseActivityType(req.ActivityType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity_type"})
		return
	}

	scope, ok := model.ParseScope(req.Scope)
	if !ok {
		scope = model.DefaultScopeFor(activityType)
	}

	input := service.CreateActivityInput{
		CompanyID:    companyID,
		ActivityType: activityType,
		Scope:        scope,
		Amount:       req.Amount,
		Unit:         req.Unit,
		CountryCode:  strings.ToUpper(strings.TrimSpace(req.CountryCode)),
		SubType:      req.SubType,
		Description:  req.Description,
		Verified:     req.Verified,
		SourceType:   model.DataSource(req.SourceType),
	}
	if req.Date != "" {
		input.Date = timeutil.Parse(req.Date)
	}

	record, err := h.emissions.CreateActivity(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *Handler) listActivities(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	records, err := h.emissions.ListActivities(c.Request.Context(), companyID, c.Query("start"), c.Query("end"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": records, "count": len(records)})
}

func (h *Handler) importActivities(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer opened.Close()

	data, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.emissions.ImportActivities(c.Request.Context(), companyID, file.Filename, data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) overview(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	overview, err := h.emissions.Overview(c.Request.Context(), companyID, c.Query("start"), c.Query("end"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *Handler) intensityMetrics(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	var productionVolume *float64
	if raw := c.Query("production_volume"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid production_volume"})
			return
		}
		productionVolume = &parsed
	}

	metrics, err := h.emissions.IntensityMetrics(c.Request.Context(), companyID, c.Query("start"), c.Query("end"), productionVolume)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"intensity_metrics": metrics})
}

func (h *Handler) forecastEmissions(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	months := 6
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 24 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "months must be between 1 and 24"})
			return
		}
		months = parsed
	}

	result, err := h.emissions.Forecast(c.Request.Context(), companyID, months)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) anomalies(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	found, err := h.emissions.Anomalies(c.Request.Context(), companyID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"anomalies": found, "count": len(found)})
}

func (h *Handler) recommendations(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	items, err := h.emissions.Recommendations(c.Request.Context(), companyID, c.Query("start"), c.Query("end"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}

type createSensorRequest struct {
	CompanyID      string  `json:"company_id" binding:"required"`
	DeviceID       string  `json:"device_id" binding:"required"`
	PowerKW        float64 `json:"power_kw"`
	EmissionFactor float64 `json:"emission_factor"`
}

func (h *Handler) createSensor(c *gin.Context) {
	var req createSensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	companyID, err := uuid.Parse(strings.TrimSpace(req.CompanyID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}

	created, err := h.emissions.CreateSensor(c.Request.Context(), service.CreateSensorInput{
		CompanyID:      companyID,
		DeviceID:       req.DeviceID,
		PowerKW:        req.PowerKW,
		EmissionFactor: req.EmissionFactor,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) listSensors(c *gin.Context) {
	companyID, ok := h.companyID(c)
	if !ok {
		return
	}

	sensors, err := h.emissions.ListSensors(c.Request.Context(), companyID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensors": sensors, "count": len(sensors)})
}

func (h *Handler) startSession(c *gin.Context) {
	updated, err := h.emissions.StartSession(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) endSession(c *gin.Context) {
	updated, err := h.emissions.EndSession(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) unitFactors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"unit_factors": h.emissions.UnitFactors()})
}

func (h *Handler) refreshFactors(c *gin.Context) {
	factors := h.emissions.RefreshFactors(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"unit_factors": factors, "count": len(factors)})
}

func (h *Handler) companyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoActiveSession):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
