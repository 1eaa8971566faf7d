package api

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"allfit/allfit-backend/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentHandler holds the scheduling service dependency.
type AppointmentHandler struct {
	schedulingService service.SchedulingService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(schedulingService service.SchedulingService) *AppointmentHandler {
	return &AppointmentHandler{schedulingService: schedulingService}
}

// --- DTOs ---

type CreateAppointmentRequest struct {
	ClientID        string                 `json:"clientId" binding:"required"`
	CoachID         string                 `json:"coachId" binding:"required"`
	Title           string                 `json:"title" binding:"required"`
	Description     string                 `json:"description"`
	AppointmentDate time.Time              `json:"appointmentDate" binding:"required"`
	Duration        *int                   `json:"duration"`
	Type            domain.AppointmentType `json:"type" binding:"omitempty,oneof=consultation training follow-up assessment"`
	Notes           string                 `json:"notes"`
}

type UpdateAppointmentRequest struct {
	Title               *string                     `json:"title"`
	Description         *string                     `json:"description"`
	AppointmentDate     *time.Time                  `json:"appointmentDate"`
	Duration            *int                        `json:"duration"`
	Type                *domain.AppointmentType     `json:"type" binding:"omitempty,oneof=consultation training follow-up assessment"`
	Status              *domain.AppointmentStatus   `json:"status" binding:"omitempty,oneof=scheduled completed cancelled no-show"`
	Notes               *string                     `json:"notes"`
	ConsultationResults *domain.ConsultationResults `json:"consultationResults"`
}

type AppointmentResponse struct {
	ID                  string                      `json:"id"`
	ClientID            string                      `json:"clientId"`
	CoachID             string                      `json:"coachId"`
	Title               string                      `json:"title"`
	Description         string                      `json:"description,omitempty"`
	AppointmentDate     time.Time                   `json:"appointmentDate"`
	Duration            int                         `json:"duration"`
	Type                domain.AppointmentType      `json:"type"`
	Status              domain.AppointmentStatus    `json:"status"`
	Notes               string                      `json:"notes,omitempty"`
	ConsultationResults *domain.ConsultationResults `json:"consultationResults,omitempty"`
	CreatedAt           time.Time                   `json:"createdAt"`
	UpdatedAt           time.Time                   `json:"updatedAt"`
}

// MapAppointmentToResponse converts a domain Appointment to its DTO.
func MapAppointmentToResponse(appt *domain.Appointment) AppointmentResponse {
	if appt == nil {
		return AppointmentResponse{}
	}
	return AppointmentResponse{
		ID:                  appt.ID.Hex(),
		ClientID:            appt.ClientID.Hex(),
		CoachID:             appt.CoachID.Hex(),
		Title:               appt.Title,
		Description:         appt.Description,
		AppointmentDate:     appt.AppointmentDate,
		Duration:            appt.Duration,
		Type:                appt.Type,
		Status:              appt.Status,
		Notes:               appt.Notes,
		ConsultationResults: appt.ConsultationResults,
		CreatedAt:           appt.CreatedAt,
		UpdatedAt:           appt.UpdatedAt,
	}
}

// MapAppointmentsToResponse converts a slice of appointments to DTOs.
func MapAppointmentsToResponse(appts []domain.Appointment) []AppointmentResponse {
	responses := make([]AppointmentResponse, len(appts))
	for i := range appts {
		responses[i] = MapAppointmentToResponse(&appts[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateAppointment books a new appointment. Returns 409 when the coach's
// slot is taken.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(req.CoachID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format.")
		return
	}

	appt, err := h.schedulingService.Schedule(c.Request.Context(), caller, service.ScheduleRequest{
		ClientID:        clientID,
		CoachID:         coachID,
		Title:           req.Title,
		Description:     req.Description,
		AppointmentDate: req.AppointmentDate,
		Duration:        req.Duration,
		Type:            req.Type,
		Notes:           req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapAppointmentToResponse(appt))
}

// GetAppointments lists appointments. Clients see their own; elevated callers
// may filter by clientId/coachId. Optional startDate/endDate/status filters.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	var filter repository.AppointmentFilter

	if idStr := c.Query("clientId"); idStr != "" {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid clientId format.")
			return
		}
		filter.ClientID = &id
	}
	if idStr := c.Query("coachId"); idStr != "" {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid coachId format.")
			return
		}
		filter.CoachID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.AppointmentStatus(statusStr)
		filter.Status = &status
	}
	filter.Dates, err = parseDateRange(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	appts, err := h.schedulingService.List(c.Request.Context(), caller, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapAppointmentsToResponse(appts))
}

// GetAppointment returns a single appointment by ID.
func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid appointment ID format.")
		return
	}

	appt, err := h.schedulingService.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapAppointmentToResponse(appt))
}

// UpdateAppointment edits an appointment; rescheduling edits re-run the
// conflict check and may return 409.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid appointment ID format.")
		return
	}

	appt, err := h.schedulingService.Update(c.Request.Context(), caller, id, service.AppointmentUpdate{
		Title:               req.Title,
		Description:         req.Description,
		AppointmentDate:     req.AppointmentDate,
		Duration:            req.Duration,
		Type:                req.Type,
		Status:              req.Status,
		Notes:               req.Notes,
		ConsultationResults: req.ConsultationResults,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapAppointmentToResponse(appt))
}

// DeleteAppointment hard-removes an appointment (elevated only, enforced by
// route middleware and the service).
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid appointment ID format.")
		return
	}

	if err := h.schedulingService.Delete(c.Request.Context(), caller, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}

// parseDateRange reads the optional startDate/endDate query params. Accepts
// RFC3339 timestamps or plain dates (2006-01-02).
func parseDateRange(c *gin.Context) (repository.DateRange, error) {
	var dates repository.DateRange
	if s := c.Query("startDate"); s != "" {
		t, err := parseDateParam(s)
		if err != nil {
			return dates, fmt.Errorf("invalid startDate: %s", s)
		}
		dates.From = t
	}
	if s := c.Query("endDate"); s != "" {
		t, err := parseDateParam(s)
		if err != nil {
			return dates, fmt.Errorf("invalid endDate: %s", s)
		}
		dates.To = t
	}
	return dates, nil
}

func parseDateParam(s string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
