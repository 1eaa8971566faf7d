package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"allfit/allfit-backend/internal/storage"
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dashboard window and list caps.
const (
	recentWindowDays        = 30
	dashboardHistoryLimit   = 10
	defaultHistoryLimit     = 20
	upcomingAppointmentsCap = 5
)

// WorkoutStats summarizes workout activity, with counts and sums computed
// over the trailing 30-day window.
type WorkoutStats struct {
	Total               int64 `json:"total"`
	RecentCount         int   `json:"recentCount"`
	CompletedCount      int   `json:"completedCount"`
	CompletionRate      int   `json:"completionRate"` // percent, rounded; 0 when no recent workouts
	TotalCaloriesBurned int   `json:"totalCaloriesBurned"`
	TotalDuration       int   `json:"totalDuration"`
}

// MetricsSummary is the latest snapshot plus recent history, newest first.
type MetricsSummary struct {
	Latest  *domain.BodyMetric  `json:"latest"`
	History []domain.BodyMetric `json:"history"`
}

// DashboardStats is the derived dashboard payload; it is never persisted.
type DashboardStats struct {
	Workouts     WorkoutStats         `json:"workouts"`
	BodyMetrics  MetricsSummary       `json:"bodyMetrics"`
	Appointments []domain.Appointment `json:"upcomingAppointments"`
}

// DailyBucket aggregates the workouts of one calendar day.
type DailyBucket struct {
	Date     string `json:"date"` // ISO-8601 date (UTC calendar day)
	Workouts int    `json:"workouts"`
	Duration int    `json:"duration"`
	Calories int    `json:"calories"`
}

// ProgressReport is the progress time series. The raw metric and workout
// lists are ascending by date — deliberately the opposite of the dashboard
// and history surfaces. Buckets keep first-seen order.
type ProgressReport struct {
	BodyMetrics []domain.BodyMetric `json:"bodyMetrics"`
	Workouts    []domain.Workout    `json:"workouts"`
	DailySeries []DailyBucket       `json:"dailySeries"`
}

// RecordMetricsInput carries a new body metric entry.
type RecordMetricsInput struct {
	// UserID names the subject. Ignored for client callers, who always record
	// for themselves; required for elevated callers.
	UserID       *primitive.ObjectID
	Date         *time.Time
	Weight       float64
	BodyFat      *float64
	MuscleMass   *float64
	Measurements *domain.Measurements
	Photos       []string
	Notes        string
}

// PhotoUpload is a presigned upload URL plus the object key the client must
// report back when attaching the photo.
type PhotoUpload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type AnalyticsService interface {
	// Dashboard computes the rolling 30-day workout statistics, latest and
	// recent body metrics, and the next scheduled appointments, all relative
	// to now.
	Dashboard(ctx context.Context, caller Caller, userID primitive.ObjectID, now time.Time) (*DashboardStats, error)
	// ProgressSeries returns metric and workout history (optionally bounded
	// by dates) plus a per-calendar-day workout rollup.
	ProgressSeries(ctx context.Context, caller Caller, userID primitive.ObjectID, dates repository.DateRange) (*ProgressReport, error)
	// RecordMetrics stores a body metric entry, deriving BMI from the
	// subject's height at write time.
	RecordMetrics(ctx context.Context, caller Caller, input RecordMetricsInput) (*domain.BodyMetric, error)
	MetricsHistory(ctx context.Context, caller Caller, userID primitive.ObjectID, limit int64) ([]domain.BodyMetric, error)

	// Progress photo flow: presigned direct-to-storage upload, then attach.
	RequestPhotoUpload(ctx context.Context, caller Caller, metricID primitive.ObjectID, contentType string) (*PhotoUpload, error)
	AttachPhoto(ctx context.Context, caller Caller, metricID primitive.ObjectID, objectKey string) (*domain.BodyMetric, error)
	PhotoDownloadURL(ctx context.Context, caller Caller, metricID primitive.ObjectID, objectKey string) (string, error)
}

// analyticsService implements the AnalyticsService interface.
type analyticsService struct {
	workoutRepo repository.WorkoutRepository
	metricRepo  repository.BodyMetricRepository
	apptRepo    repository.AppointmentRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
	log         *logrus.Logger
}

// NewAnalyticsService creates a new instance of analyticsService.
func NewAnalyticsService(
	workoutRepo repository.WorkoutRepository,
	metricRepo repository.BodyMetricRepository,
	apptRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	log *logrus.Logger,
) AnalyticsService {
	return &analyticsService{
		workoutRepo: workoutRepo,
		metricRepo:  metricRepo,
		apptRepo:    apptRepo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		log:         log,
	}
}

// canViewStats gates read access: users see their own data, elevated callers
// see anyone's.
func canViewStats(caller Caller, userID primitive.ObjectID) bool {
	return caller.ID == userID || caller.Role.HasElevatedAccess()
}

func (s *analyticsService) Dashboard(ctx context.Context, caller Caller, userID primitive.ObjectID, now time.Time) (*DashboardStats, error) {
	if !canViewStats(caller, userID) {
		return nil, ErrPermission
	}

	total, err := s.workoutRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -recentWindowDays)
	recent, err := s.workoutRepo.List(ctx, repository.WorkoutFilter{
		UserID: &userID,
		Dates:  repository.DateRange{From: &since},
	}, false)
	if err != nil {
		return nil, err
	}

	stats := WorkoutStats{Total: total, RecentCount: len(recent)}
	for i := range recent {
		w := &recent[i]
		if w.Completed {
			stats.CompletedCount++
		}
		// Absent duration/calories count as zero; aggregation never fails on
		// missing optional fields.
		stats.TotalDuration += w.DurationOrZero()
		stats.TotalCaloriesBurned += w.CaloriesOrZero()
	}
	if stats.RecentCount > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.CompletedCount) / float64(stats.RecentCount) * 100))
	}

	latest, err := s.metricRepo.GetLatestByUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	history, err := s.metricRepo.GetHistoryByUser(ctx, userID, dashboardHistoryLimit)
	if err != nil {
		return nil, err
	}

	upcoming, err := s.apptRepo.GetUpcomingByClient(ctx, userID, now, upcomingAppointmentsCap)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Workouts:     stats,
		BodyMetrics:  MetricsSummary{Latest: latest, History: history},
		Appointments: upcoming,
	}, nil
}

func (s *analyticsService) ProgressSeries(ctx context.Context, caller Caller, userID primitive.ObjectID, dates repository.DateRange) (*ProgressReport, error) {
	if !canViewStats(caller, userID) {
		return nil, ErrPermission
	}

	metrics, err := s.metricRepo.GetByUserAscending(ctx, userID, dates)
	if err != nil {
		return nil, err
	}

	workouts, err := s.workoutRepo.List(ctx, repository.WorkoutFilter{
		UserID: &userID,
		Dates:  dates,
	}, true)
	if err != nil {
		return nil, err
	}

	return &ProgressReport{
		BodyMetrics: metrics,
		Workouts:    workouts,
		DailySeries: bucketByDay(workouts),
	}, nil
}

// bucketByDay folds workouts into per-calendar-day totals. Buckets keep
// first-seen order so the output is stable for a given input order, and the
// per-bucket totals are independent of input order.
func bucketByDay(workouts []domain.Workout) []DailyBucket {
	buckets := make([]DailyBucket, 0, len(workouts))
	index := make(map[string]int, len(workouts))

	for i := range workouts {
		w := &workouts[i]
		day := w.Date.UTC().Format("2006-01-02")
		pos, ok := index[day]
		if !ok {
			pos = len(buckets)
			index[day] = pos
			buckets = append(buckets, DailyBucket{Date: day})
		}
		buckets[pos].Workouts++
		buckets[pos].Duration += w.DurationOrZero()
		buckets[pos].Calories += w.CaloriesOrZero()
	}
	return buckets
}

func (s *analyticsService) RecordMetrics(ctx context.Context, caller Caller, input RecordMetricsInput) (*domain.BodyMetric, error) {
	if input.Weight <= 0 {
		return nil, validationError("weight is required")
	}

	// Clients always record for themselves; elevated callers must say who.
	subjectID := caller.ID
	if caller.Role.HasElevatedAccess() {
		if input.UserID == nil {
			return nil, validationError("userId is required")
		}
		subjectID = *input.UserID
	}

	subject, err := s.userRepo.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("user")
		}
		return nil, err
	}

	metric := &domain.BodyMetric{
		UserID:       subjectID,
		Weight:       input.Weight,
		BodyFat:      input.BodyFat,
		MuscleMass:   input.MuscleMass,
		Measurements: input.Measurements,
		Photos:       input.Photos,
		Notes:        input.Notes,
		RecordedBy:   &caller.ID,
	}
	if input.Date != nil {
		metric.Date = *input.Date
	}

	// BMI is derived once, here at write time, and never recomputed on read.
	if subject.Height != nil && *subject.Height > 0 {
		bmi := domain.DeriveBMI(input.Weight, *subject.Height)
		metric.BMI = &bmi
	}

	metricID, err := s.metricRepo.Create(ctx, metric)
	if err != nil {
		return nil, err
	}
	metric.ID = metricID

	s.log.WithFields(logrus.Fields{
		"metricId": metricID.Hex(),
		"userId":   subjectID.Hex(),
	}).Info("body metrics recorded")

	return metric, nil
}

func (s *analyticsService) MetricsHistory(ctx context.Context, caller Caller, userID primitive.ObjectID, limit int64) ([]domain.BodyMetric, error) {
	if !canViewStats(caller, userID) {
		return nil, ErrPermission
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.metricRepo.GetHistoryByUser(ctx, userID, limit)
}

// getOwnedMetric fetches a metric and checks the caller may touch it.
func (s *analyticsService) getOwnedMetric(ctx context.Context, caller Caller, metricID primitive.ObjectID) (*domain.BodyMetric, error) {
	metric, err := s.metricRepo.GetByID(ctx, metricID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("body metric")
		}
		return nil, err
	}
	if !canViewStats(caller, metric.UserID) {
		return nil, ErrPermission
	}
	return metric, nil
}

func (s *analyticsService) RequestPhotoUpload(ctx context.Context, caller Caller, metricID primitive.ObjectID, contentType string) (*PhotoUpload, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, validationError("contentType must be an image type")
	}

	metric, err := s.getOwnedMetric(ctx, caller, metricID)
	if err != nil {
		return nil, err
	}

	ext := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		ext = parts[1]
	}
	objectKey := path.Join("progress-photos", metric.UserID.Hex(), metricID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &PhotoUpload{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

func (s *analyticsService) AttachPhoto(ctx context.Context, caller Caller, metricID primitive.ObjectID, objectKey string) (*domain.BodyMetric, error) {
	if objectKey == "" {
		return nil, validationError("objectKey is required")
	}

	metric, err := s.getOwnedMetric(ctx, caller, metricID)
	if err != nil {
		return nil, err
	}

	for _, existing := range metric.Photos {
		if existing == objectKey {
			return metric, nil
		}
	}
	metric.Photos = append(metric.Photos, objectKey)

	if err := s.metricRepo.Update(ctx, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *analyticsService) PhotoDownloadURL(ctx context.Context, caller Caller, metricID primitive.ObjectID, objectKey string) (string, error) {
	metric, err := s.getOwnedMetric(ctx, caller, metricID)
	if err != nil {
		return "", err
	}

	known := false
	for _, existing := range metric.Photos {
		if existing == objectKey {
			known = true
			break
		}
	}
	if !known {
		return "", notFoundError("photo")
	}

	return s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry)
}
