package api

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalyticsHandler holds the analytics service dependency.
type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// --- DTOs ---

type RecordMetricsRequest struct {
	UserID       string               `json:"userId"` // ignored for client callers
	Date         *time.Time           `json:"date"`
	Weight       float64              `json:"weight" binding:"required,gt=0"`
	BodyFat      *float64             `json:"bodyFat"`
	MuscleMass   *float64             `json:"muscleMass"`
	Measurements *domain.Measurements `json:"measurements"`
	Photos       []string             `json:"photos"`
	Notes        string               `json:"notes"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type AttachPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// --- Handler Methods ---

// GetDashboard returns the 30-day rolling statistics, body metric summary
// and next scheduled appointments for a user.
func (h *AnalyticsHandler) GetDashboard(c *gin.Context) {
	caller, userID, ok := callerAndUserID(c)
	if !ok {
		return
	}

	stats, err := h.analyticsService.Dashboard(c.Request.Context(), caller, userID, time.Now().UTC())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analytics": stats})
}

// GetProgress returns metric/workout history (optionally date-bounded) and
// the per-day workout series.
func (h *AnalyticsHandler) GetProgress(c *gin.Context) {
	caller, userID, ok := callerAndUserID(c)
	if !ok {
		return
	}
	dates, err := parseDateRange(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.analyticsService.ProgressSeries(c.Request.Context(), caller, userID, dates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": report})
}

// RecordBodyMetrics stores a new body metric entry; BMI is derived from the
// subject's height at write time.
func (h *AnalyticsHandler) RecordBodyMetrics(c *gin.Context) {
	var req RecordMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	input := service.RecordMetricsInput{
		Date:         req.Date,
		Weight:       req.Weight,
		BodyFat:      req.BodyFat,
		MuscleMass:   req.MuscleMass,
		Measurements: req.Measurements,
		Photos:       req.Photos,
		Notes:        req.Notes,
	}
	if req.UserID != "" {
		userID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
			return
		}
		input.UserID = &userID
	}

	metric, err := h.analyticsService.RecordMetrics(c.Request.Context(), caller, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bodyMetrics": metric})
}

// GetBodyMetricsHistory returns recent metric records, newest first.
// Optional limit query param, default 20.
func (h *AnalyticsHandler) GetBodyMetricsHistory(c *gin.Context) {
	caller, userID, ok := callerAndUserID(c)
	if !ok {
		return
	}

	var limit int64
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || parsed <= 0 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit parameter.")
			return
		}
		limit = parsed
	}

	metrics, err := h.analyticsService.MetricsHistory(c.Request.Context(), caller, userID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// RequestPhotoUpload hands out a presigned PUT URL for a progress photo.
func (h *AnalyticsHandler) RequestPhotoUpload(c *gin.Context) {
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, metricID, ok := callerAndMetricID(c)
	if !ok {
		return
	}

	upload, err := h.analyticsService.RequestPhotoUpload(c.Request.Context(), caller, metricID, req.ContentType)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// AttachPhoto records an uploaded photo's object key on the metric entry.
func (h *AnalyticsHandler) AttachPhoto(c *gin.Context) {
	var req AttachPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, metricID, ok := callerAndMetricID(c)
	if !ok {
		return
	}

	metric, err := h.analyticsService.AttachPhoto(c.Request.Context(), caller, metricID, req.ObjectKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bodyMetrics": metric})
}

// GetPhotoURL returns a presigned GET URL for a previously attached photo.
func (h *AnalyticsHandler) GetPhotoURL(c *gin.Context) {
	caller, metricID, ok := callerAndMetricID(c)
	if !ok {
		return
	}
	objectKey := c.Query("objectKey")
	if objectKey == "" {
		abortWithError(c, http.StatusBadRequest, "objectKey query parameter is required.")
		return
	}

	url, err := h.analyticsService.PhotoDownloadURL(c.Request.Context(), caller, metricID, objectKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// callerAndUserID extracts the caller plus the :userId path parameter.
func callerAndUserID(c *gin.Context) (service.Caller, primitive.ObjectID, bool) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return service.Caller{}, primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return service.Caller{}, primitive.NilObjectID, false
	}
	return caller, userID, true
}

// callerAndMetricID extracts the caller plus the :metricId path parameter.
func callerAndMetricID(c *gin.Context) (service.Caller, primitive.ObjectID, bool) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return service.Caller{}, primitive.NilObjectID, false
	}
	metricID, err := primitive.ObjectIDFromHex(c.Param("metricId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid metric ID format.")
		return service.Caller{}, primitive.NilObjectID, false
	}
	return caller, metricID, true
}
