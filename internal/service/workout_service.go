package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateWorkoutInput carries a new workout entry.
type CreateWorkoutInput struct {
	// UserID names the owner. Ignored for client callers, who always log for
	// themselves; required for elevated callers.
	UserID         *primitive.ObjectID
	Title          string
	Description    string
	Date           *time.Time
	Exercises      []domain.Exercise
	Duration       *int
	CaloriesBurned *int
	Notes          string
	CoachNotes     string
}

// WorkoutUpdate lists the editable workout fields; nil fields are untouched.
// CoachNotes may only be set by elevated callers.
type WorkoutUpdate struct {
	Title          *string
	Description    *string
	Date           *time.Time
	Exercises      []domain.Exercise
	Duration       *int
	CaloriesBurned *int
	Notes          *string
	CoachNotes     *string
	Completed      *bool
}

type WorkoutService interface {
	Create(ctx context.Context, caller Caller, input CreateWorkoutInput) (*domain.Workout, error)
	Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.Workout, error)
	// List returns workouts newest first. Clients see only their own; an
	// elevated caller may pass a userID filter or none for all users.
	List(ctx context.Context, caller Caller, userID *primitive.ObjectID, dates repository.DateRange) ([]domain.Workout, error)
	Update(ctx context.Context, caller Caller, id primitive.ObjectID, update WorkoutUpdate) (*domain.Workout, error)
	Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	workoutRepo repository.WorkoutRepository
	log         *logrus.Logger
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(workoutRepo repository.WorkoutRepository, log *logrus.Logger) WorkoutService {
	return &workoutService{workoutRepo: workoutRepo, log: log}
}

func (s *workoutService) Create(ctx context.Context, caller Caller, input CreateWorkoutInput) (*domain.Workout, error) {
	if input.Title == "" || len(input.Exercises) == 0 {
		return nil, validationError("title and at least one exercise are required")
	}

	ownerID := caller.ID
	if caller.Role.HasElevatedAccess() {
		if input.UserID == nil {
			return nil, validationError("userId is required")
		}
		ownerID = *input.UserID
	}

	workout := &domain.Workout{
		UserID:         ownerID,
		Title:          input.Title,
		Description:    input.Description,
		Exercises:      input.Exercises,
		Duration:       input.Duration,
		CaloriesBurned: input.CaloriesBurned,
		Notes:          input.Notes,
		CoachNotes:     input.CoachNotes,
		CreatedBy:      &caller.ID,
	}
	if input.Date != nil {
		workout.Date = *input.Date
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = workoutID

	s.log.WithFields(logrus.Fields{
		"workoutId": workoutID.Hex(),
		"userId":    ownerID.Hex(),
	}).Info("workout created")

	return workout, nil
}

func (s *workoutService) Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("workout")
		}
		return nil, err
	}
	if workout.UserID != caller.ID && !caller.Role.HasElevatedAccess() {
		return nil, ErrPermission
	}
	return workout, nil
}

func (s *workoutService) List(ctx context.Context, caller Caller, userID *primitive.ObjectID, dates repository.DateRange) ([]domain.Workout, error) {
	filter := repository.WorkoutFilter{UserID: userID, Dates: dates}
	if !caller.Role.HasElevatedAccess() {
		callerID := caller.ID
		filter.UserID = &callerID
	}
	return s.workoutRepo.List(ctx, filter, false)
}

func (s *workoutService) Update(ctx context.Context, caller Caller, id primitive.ObjectID, update WorkoutUpdate) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("workout")
		}
		return nil, err
	}

	isOwner := workout.UserID == caller.ID
	elevated := caller.Role.HasElevatedAccess()
	if !isOwner && !elevated {
		return nil, ErrPermission
	}

	if update.Title != nil {
		workout.Title = *update.Title
	}
	if update.Description != nil {
		workout.Description = *update.Description
	}
	if update.Date != nil {
		workout.Date = *update.Date
	}
	if update.Exercises != nil {
		workout.Exercises = update.Exercises
	}
	if update.Duration != nil {
		workout.Duration = update.Duration
	}
	if update.CaloriesBurned != nil {
		workout.CaloriesBurned = update.CaloriesBurned
	}
	if update.Notes != nil {
		workout.Notes = *update.Notes
	}
	if update.Completed != nil {
		workout.Completed = *update.Completed
	}
	if update.CoachNotes != nil {
		if !elevated {
			return nil, fmt.Errorf("%w: only coaches may update coach notes", ErrPermission)
		}
		workout.CoachNotes = *update.CoachNotes
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *workoutService) Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	workout, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("workout")
		}
		return err
	}
	if workout.UserID != caller.ID && !caller.Role.HasElevatedAccess() {
		return ErrPermission
	}
	return s.workoutRepo.Delete(ctx, id)
}
