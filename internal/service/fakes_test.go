package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func intPtr(n int) *int { return &n }

// --- in-memory user repository ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		if u.ID == primitive.NilObjectID {
			u.ID = primitive.NewObjectID()
		}
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return primitive.NilObjectID, repository.ErrDuplicateEmail
		}
	}
	id := primitive.NewObjectID()
	user.ID = id
	copied := *user
	r.users[id] = &copied
	return id, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			haystack := strings.ToLower(u.FirstName + " " + u.LastName + " " + u.Email)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// --- in-memory appointment repository ---

type fakeAppointmentRepo struct {
	appointments []domain.Appointment
}

func (r *fakeAppointmentRepo) Create(_ context.Context, appt *domain.Appointment) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	appt.ID = id
	r.appointments = append(r.appointments, *appt)
	return id, nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			copied := r.appointments[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAppointmentRepo) List(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range r.appointments {
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.CoachID != nil && a.CoachID != *filter.CoachID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if !filter.Dates.Contains(a.AppointmentDate) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out, nil
}

func (r *fakeAppointmentRepo) GetActiveByCoach(_ context.Context, coachID primitive.ObjectID) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.CoachID == coachID && a.BlocksSlot() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) GetUpcomingByClient(_ context.Context, clientID primitive.ObjectID, from time.Time, limit int64) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range r.appointments {
		if a.ClientID == clientID && a.Status == domain.StatusScheduled && !a.AppointmentDate.Before(from) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, appt *domain.Appointment) error {
	for i := range r.appointments {
		if r.appointments[i].ID == appt.ID {
			r.appointments[i] = *appt
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			r.appointments = append(r.appointments[:i], r.appointments[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- in-memory workout repository ---

type fakeWorkoutRepo struct {
	workouts []domain.Workout
}

func (r *fakeWorkoutRepo) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	workout.ID = id
	r.workouts = append(r.workouts, *workout)
	return id, nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	for i := range r.workouts {
		if r.workouts[i].ID == id {
			copied := r.workouts[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeWorkoutRepo) List(_ context.Context, filter repository.WorkoutFilter, sortAsc bool) ([]domain.Workout, error) {
	var out []domain.Workout
	for _, w := range r.workouts {
		if filter.UserID != nil && w.UserID != *filter.UserID {
			continue
		}
		if !filter.Dates.Contains(w.Date) {
			continue
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortAsc {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *fakeWorkoutRepo) CountByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, w := range r.workouts {
		if w.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, workout *domain.Workout) error {
	for i := range r.workouts {
		if r.workouts[i].ID == workout.ID {
			r.workouts[i] = *workout
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	for i := range r.workouts {
		if r.workouts[i].ID == id {
			r.workouts = append(r.workouts[:i], r.workouts[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- in-memory body metric repository ---

type fakeMetricRepo struct {
	metrics []domain.BodyMetric // insertion order
}

func (r *fakeMetricRepo) Create(_ context.Context, metric *domain.BodyMetric) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	metric.ID = id
	if metric.Date.IsZero() {
		metric.Date = time.Now().UTC()
	}
	r.metrics = append(r.metrics, *metric)
	return id, nil
}

func (r *fakeMetricRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.BodyMetric, error) {
	for i := range r.metrics {
		if r.metrics[i].ID == id {
			copied := r.metrics[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// byDateDesc returns the user's metrics newest first; equal dates break by
// insertion order, newest insert first, mirroring a date/_id descending sort.
func (r *fakeMetricRepo) byDateDesc(userID primitive.ObjectID) []domain.BodyMetric {
	var out []domain.BodyMetric
	for i := len(r.metrics) - 1; i >= 0; i-- {
		if r.metrics[i].UserID == userID {
			out = append(out, r.metrics[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (r *fakeMetricRepo) GetLatestByUser(_ context.Context, userID primitive.ObjectID) (*domain.BodyMetric, error) {
	metrics := r.byDateDesc(userID)
	if len(metrics) == 0 {
		return nil, repository.ErrNotFound
	}
	copied := metrics[0]
	return &copied, nil
}

func (r *fakeMetricRepo) GetHistoryByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]domain.BodyMetric, error) {
	metrics := r.byDateDesc(userID)
	if limit > 0 && int64(len(metrics)) > limit {
		metrics = metrics[:limit]
	}
	return metrics, nil
}

func (r *fakeMetricRepo) GetByUserAscending(_ context.Context, userID primitive.ObjectID, dates repository.DateRange) ([]domain.BodyMetric, error) {
	var out []domain.BodyMetric
	for _, m := range r.metrics {
		if m.UserID == userID && dates.Contains(m.Date) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *fakeMetricRepo) Update(_ context.Context, metric *domain.BodyMetric) error {
	for i := range r.metrics {
		if r.metrics[i].ID == metric.ID {
			r.metrics[i] = *metric
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- fake file storage ---

type fakeFileStorage struct {
	deleted []string
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, contentType string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?method=put&type=%s", objectKey, contentType), nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?method=get", objectKey), nil
}

func (s *fakeFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}
