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
	"golang.org/x/crypto/bcrypt"
)

// CreateUserInput carries the fields for admin/coach user provisioning.
type CreateUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
	Role         domain.Role // empty defaults to client
	DateOfBirth  *time.Time
	Gender       string
	Height       *float64
	Weight       *float64
	Goals        string
	MedicalNotes string
}

// UserUpdate lists the editable user fields; nil fields are untouched.
// Role and IsActive may only be set by elevated callers.
type UserUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	ProfileImage *string
	DateOfBirth  *time.Time
	Gender       *string
	Height       *float64
	Weight       *float64
	Goals        *string
	MedicalNotes *string
	Role         *domain.Role
	IsActive     *bool
}

type UserService interface {
	List(ctx context.Context, caller Caller, filter repository.UserFilter) ([]domain.User, error)
	Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.User, error)
	Create(ctx context.Context, caller Caller, input CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, caller Caller, id primitive.ObjectID, update UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error
}

// userService implements the UserService interface.
type userService struct {
	userRepo repository.UserRepository
	log      *logrus.Logger
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository, log *logrus.Logger) UserService {
	return &userService{userRepo: userRepo, log: log}
}

func (s *userService) List(ctx context.Context, caller Caller, filter repository.UserFilter) ([]domain.User, error) {
	if !caller.Role.HasElevatedAccess() {
		return nil, ErrPermission
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.User, error) {
	if caller.ID != id && !caller.Role.HasElevatedAccess() {
		return nil, ErrPermission
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("user")
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Create(ctx context.Context, caller Caller, input CreateUserInput) (*domain.User, error) {
	if !caller.Role.HasElevatedAccess() {
		return nil, ErrPermission
	}
	if input.FirstName == "" || input.LastName == "" || input.Email == "" || input.Password == "" {
		return nil, validationError("firstName, lastName, email and password are required")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}
	if !role.IsValid() {
		return nil, validationError("invalid role %q", role)
	}
	// Only a coach may provision elevated accounts.
	if role.HasElevatedAccess() && caller.Role != domain.RoleCoach {
		return nil, fmt.Errorf("%w: only a coach may create coach or admin accounts", ErrPermission)
	}

	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		Phone:        input.Phone,
		DateOfBirth:  input.DateOfBirth,
		Gender:       input.Gender,
		Height:       input.Height,
		Weight:       input.Weight,
		Goals:        input.Goals,
		MedicalNotes: input.MedicalNotes,
		IsActive:     true,
		CreatedBy:    &caller.ID,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	s.log.WithFields(logrus.Fields{
		"userId":    userID.Hex(),
		"role":      role,
		"createdBy": caller.ID.Hex(),
	}).Info("user created")

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Update(ctx context.Context, caller Caller, id primitive.ObjectID, update UserUpdate) (*domain.User, error) {
	isSelf := caller.ID == id
	elevated := caller.Role.HasElevatedAccess()
	if !isSelf && !elevated {
		return nil, ErrPermission
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("user")
		}
		return nil, err
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.ProfileImage != nil {
		user.ProfileImage = *update.ProfileImage
	}
	if update.DateOfBirth != nil {
		user.DateOfBirth = update.DateOfBirth
	}
	if update.Gender != nil {
		user.Gender = *update.Gender
	}
	if update.Height != nil {
		user.Height = update.Height
	}
	if update.Weight != nil {
		user.Weight = update.Weight
	}
	if update.Goals != nil {
		user.Goals = *update.Goals
	}
	if update.MedicalNotes != nil {
		user.MedicalNotes = *update.MedicalNotes
	}
	if update.Role != nil {
		if !elevated {
			return nil, fmt.Errorf("%w: only coaches may change roles", ErrPermission)
		}
		if !update.Role.IsValid() {
			return nil, validationError("invalid role %q", *update.Role)
		}
		user.Role = *update.Role
	}
	if update.IsActive != nil {
		if !elevated {
			return nil, fmt.Errorf("%w: only coaches may change account status", ErrPermission)
		}
		user.IsActive = *update.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	// Hard removal is coach-only, stricter than the usual elevated gate.
	if caller.Role != domain.RoleCoach {
		return ErrPermission
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("user")
		}
		return err
	}
	s.log.WithField("userId", id.Hex()).Info("user deleted")
	return nil
}
