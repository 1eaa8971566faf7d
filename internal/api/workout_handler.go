package api

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler holds the workout service dependency.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type ExerciseRequest struct {
	Name      string   `json:"name" binding:"required"`
	Sets      int      `json:"sets" binding:"required,min=1"`
	Reps      int      `json:"reps" binding:"required,min=1"`
	Weight    *float64 `json:"weight"`
	Duration  *int     `json:"duration"`
	Notes     string   `json:"notes"`
	Completed bool     `json:"completed"`
}

type CreateWorkoutRequest struct {
	UserID         string            `json:"userId"` // ignored for client callers
	Title          string            `json:"title" binding:"required"`
	Description    string            `json:"description"`
	Date           *time.Time        `json:"date"`
	Exercises      []ExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
	Duration       *int              `json:"duration"`
	CaloriesBurned *int              `json:"caloriesBurned"`
	Notes          string            `json:"notes"`
	CoachNotes     string            `json:"coachNotes"`
}

type UpdateWorkoutRequest struct {
	Title          *string           `json:"title"`
	Description    *string           `json:"description"`
	Date           *time.Time        `json:"date"`
	Exercises      []ExerciseRequest `json:"exercises" binding:"omitempty,dive"`
	Duration       *int              `json:"duration"`
	CaloriesBurned *int              `json:"caloriesBurned"`
	Notes          *string           `json:"notes"`
	CoachNotes     *string           `json:"coachNotes"`
	Completed      *bool             `json:"completed"`
}

type WorkoutResponse struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Date           time.Time         `json:"date"`
	Exercises      []domain.Exercise `json:"exercises"`
	Duration       *int              `json:"duration,omitempty"`
	CaloriesBurned *int              `json:"caloriesBurned,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	CoachNotes     string            `json:"coachNotes,omitempty"`
	Completed      bool              `json:"completed"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func mapExercises(reqs []ExerciseRequest) []domain.Exercise {
	if reqs == nil {
		return nil
	}
	exercises := make([]domain.Exercise, len(reqs))
	for i, e := range reqs {
		exercises[i] = domain.Exercise{
			Name:      e.Name,
			Sets:      e.Sets,
			Reps:      e.Reps,
			Weight:    e.Weight,
			Duration:  e.Duration,
			Notes:     e.Notes,
			Completed: e.Completed,
		}
	}
	return exercises
}

// MapWorkoutToResponse converts a domain Workout to its DTO.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	return WorkoutResponse{
		ID:             w.ID.Hex(),
		UserID:         w.UserID.Hex(),
		Title:          w.Title,
		Description:    w.Description,
		Date:           w.Date,
		Exercises:      w.Exercises,
		Duration:       w.Duration,
		CaloriesBurned: w.CaloriesBurned,
		Notes:          w.Notes,
		CoachNotes:     w.CoachNotes,
		Completed:      w.Completed,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// MapWorkoutsToResponse converts a slice of workouts to DTOs.
func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}

// --- Handler Methods ---

func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	input := service.CreateWorkoutInput{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Exercises:      mapExercises(req.Exercises),
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Notes:          req.Notes,
		CoachNotes:     req.CoachNotes,
	}
	if req.UserID != "" {
		userID, err := primitive.ObjectIDFromHex(req.UserID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
			return
		}
		input.UserID = &userID
	}

	workout, err := h.workoutService.Create(c.Request.Context(), caller, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) GetWorkouts(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	var userID *primitive.ObjectID
	if idStr := c.Query("userId"); idStr != "" {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid userId format.")
			return
		}
		userID = &id
	}
	dates, err := parseDateRange(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workouts, err := h.workoutService.List(c.Request.Context(), caller, userID, dates)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}

	workout, err := h.workoutService.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	var req UpdateWorkoutRequest
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
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}

	workout, err := h.workoutService.Update(c.Request.Context(), caller, id, service.WorkoutUpdate{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		Exercises:      mapExercises(req.Exercises),
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Notes:          req.Notes,
		CoachNotes:     req.CoachNotes,
		Completed:      req.Completed,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}

	if err := h.workoutService.Delete(c.Request.Context(), caller, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workout deleted successfully"})
}
