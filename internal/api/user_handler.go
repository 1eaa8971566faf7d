package api

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"allfit/allfit-backend/internal/service"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserHandler holds the user service dependency.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// --- DTOs ---

type CreateUserRequest struct {
	FirstName    string      `json:"firstName" binding:"required"`
	LastName     string      `json:"lastName" binding:"required"`
	Email        string      `json:"email" binding:"required,email"`
	Password     string      `json:"password" binding:"required,min=8"`
	Phone        string      `json:"phone"`
	Role         domain.Role `json:"role" binding:"omitempty,oneof=client coach admin"`
	DateOfBirth  *time.Time  `json:"dateOfBirth"`
	Gender       string      `json:"gender"`
	Height       *float64    `json:"height"`
	Weight       *float64    `json:"weight"`
	Goals        string      `json:"goals"`
	MedicalNotes string      `json:"medicalNotes"`
}

type UpdateUserRequest struct {
	FirstName    *string      `json:"firstName"`
	LastName     *string      `json:"lastName"`
	Phone        *string      `json:"phone"`
	ProfileImage *string      `json:"profileImage"`
	DateOfBirth  *time.Time   `json:"dateOfBirth"`
	Gender       *string      `json:"gender"`
	Height       *float64     `json:"height"`
	Weight       *float64     `json:"weight"`
	Goals        *string      `json:"goals"`
	MedicalNotes *string      `json:"medicalNotes"`
	Role         *domain.Role `json:"role" binding:"omitempty,oneof=client coach admin"`
	IsActive     *bool        `json:"isActive"`
}

// --- Handler Methods ---

// GetUsers lists users, optionally filtered by role or a name/email search.
// Elevated callers only (enforced by route middleware and the service).
func (h *UserHandler) GetUsers(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	var filter repository.UserFilter
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.Role(roleStr)
		if !role.IsValid() {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid role filter: %s", roleStr))
			return
		}
		filter.Role = &role
	}
	filter.Search = c.Query("search")

	users, err := h.userService.List(c.Request.Context(), caller, filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// GetUser returns a single user; callers may fetch themselves, elevated
// callers anyone.
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	user, err := h.userService.Get(c.Request.Context(), caller, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// CreateUser provisions a user account on someone's behalf.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}

	user, err := h.userService.Create(c.Request.Context(), caller, service.CreateUserInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		Role:         req.Role,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Height:       req.Height,
		Weight:       req.Weight,
		Goals:        req.Goals,
		MedicalNotes: req.MedicalNotes,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// UpdateUser edits a user profile. Role and isActive changes require
// elevated access.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
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
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	user, err := h.userService.Update(c.Request.Context(), caller, id, service.UserUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		Height:       req.Height,
		Weight:       req.Weight,
		Goals:        req.Goals,
		MedicalNotes: req.MedicalNotes,
		Role:         req.Role,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteUser hard-removes a user account. Coach only.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, err := getCallerFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), caller, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
