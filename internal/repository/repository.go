package repository

import (
	"allfit/allfit-backend/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateEmail = RepositoryError("email already taken")
	ErrUpdateFailed   = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// DateRange is an optional, half-bounded or fully bounded date filter.
// A nil bound means "no bound on that side"; From is inclusive, To is inclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t satisfies both bounds.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// UserFilter narrows List results.
type UserFilter struct {
	Role   *domain.Role
	Search string // case-insensitive match on first/last name or email
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AppointmentFilter narrows appointment listings. Nil fields are ignored.
type AppointmentFilter struct {
	ClientID *primitive.ObjectID
	CoachID  *primitive.ObjectID
	Status   *domain.AppointmentStatus
	Dates    DateRange
}

// AppointmentRepository defines the interface for interacting with appointment data.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error)
	// List returns appointments matching the filter, ascending by date.
	List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	// GetActiveByCoach returns the coach's appointments whose status still
	// blocks the slot (not cancelled, not no-show), in no particular order.
	GetActiveByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Appointment, error)
	// GetUpcomingByClient returns scheduled appointments for the client with
	// date >= from, ascending by date, capped at limit.
	GetUpcomingByClient(ctx context.Context, clientID primitive.ObjectID, from time.Time, limit int64) ([]domain.Appointment, error)
	Update(ctx context.Context, appt *domain.Appointment) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutFilter narrows workout listings. A nil UserID means all users.
type WorkoutFilter struct {
	UserID *primitive.ObjectID
	Dates  DateRange
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	// List returns workouts matching the filter. Ascending by date when
	// sortAsc, otherwise descending (the listing and analytics surfaces
	// deliberately use opposite orders).
	List(ctx context.Context, filter WorkoutFilter, sortAsc bool) ([]domain.Workout, error)
	CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// BodyMetricRepository defines the interface for interacting with body metric data.
type BodyMetricRepository interface {
	Create(ctx context.Context, metric *domain.BodyMetric) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.BodyMetric, error)
	// GetLatestByUser returns the most recent metric by date; ties break by
	// insertion order (descending _id) so the result is deterministic.
	GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*domain.BodyMetric, error)
	// GetHistoryByUser returns up to limit metrics, descending by date.
	GetHistoryByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.BodyMetric, error)
	// GetByUserAscending returns metrics in the range, ascending by date.
	GetByUserAscending(ctx context.Context, userID primitive.ObjectID, dates DateRange) ([]domain.BodyMetric, error)
	Update(ctx context.Context, metric *domain.BodyMetric) error
}
