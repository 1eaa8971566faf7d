package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleRequest carries the fields of a booking proposal.
type ScheduleRequest struct {
	ClientID        primitive.ObjectID
	CoachID         primitive.ObjectID
	Title           string
	Description     string
	AppointmentDate time.Time
	// Duration in minutes. Absent defaults to DefaultAppointmentDuration;
	// an explicit non-positive value is a validation error.
	Duration *int
	Type     domain.AppointmentType
	Notes    string
}

// AppointmentUpdate lists the editable appointment fields; nil fields are
// left untouched. Which fields a caller may set depends on their role.
type AppointmentUpdate struct {
	Title               *string
	Description         *string
	AppointmentDate     *time.Time
	Duration            *int
	Type                *domain.AppointmentType
	Status              *domain.AppointmentStatus
	Notes               *string
	ConsultationResults *domain.ConsultationResults
}

type SchedulingService interface {
	// Schedule validates and books a new appointment. It rejects with
	// ErrConflict when the coach already has an overlapping non-cancelled
	// appointment; exact back-to-back abutment is admitted.
	Schedule(ctx context.Context, caller Caller, req ScheduleRequest) (*domain.Appointment, error)
	Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.Appointment, error)
	List(ctx context.Context, caller Caller, filter repository.AppointmentFilter) ([]domain.Appointment, error)
	// Update edits an appointment. Edits that move the appointment in time
	// (date, duration) re-run the conflict check, excluding the appointment
	// itself.
	Update(ctx context.Context, caller Caller, id primitive.ObjectID, update AppointmentUpdate) (*domain.Appointment, error)
	Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error
}

// coachLocker hands out one mutex per coach so that the conflict scan and the
// subsequent insert are atomic with respect to concurrent bookings for the
// same coach. Process-local: a multi-instance deployment would need a
// storage-level uniqueness scheme instead.
type coachLocker struct {
	mu    sync.Mutex
	locks map[primitive.ObjectID]*sync.Mutex
}

func newCoachLocker() *coachLocker {
	return &coachLocker{locks: make(map[primitive.ObjectID]*sync.Mutex)}
}

func (l *coachLocker) forCoach(coachID primitive.ObjectID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[coachID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[coachID] = m
	}
	return m
}

// schedulingService implements the SchedulingService interface.
type schedulingService struct {
	apptRepo repository.AppointmentRepository
	userRepo repository.UserRepository
	log      *logrus.Logger
	locks    *coachLocker
}

// NewSchedulingService creates a new instance of schedulingService.
func NewSchedulingService(apptRepo repository.AppointmentRepository, userRepo repository.UserRepository, log *logrus.Logger) SchedulingService {
	return &schedulingService{
		apptRepo: apptRepo,
		userRepo: userRepo,
		log:      log,
		locks:    newCoachLocker(),
	}
}

// findConflict returns the first appointment among existing that belongs to
// coachID, still blocks its slot, and overlaps [start, start+duration).
// exclude skips one appointment identity (the one being edited).
func findConflict(existing []domain.Appointment, coachID primitive.ObjectID, start time.Time, durationMinutes int, exclude primitive.ObjectID) *domain.Appointment {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	for i := range existing {
		a := &existing[i]
		if a.ID == exclude || a.CoachID != coachID || !a.BlocksSlot() {
			continue
		}
		if a.OverlapsInterval(start, end) {
			return a
		}
	}
	return nil
}

func (s *schedulingService) Schedule(ctx context.Context, caller Caller, req ScheduleRequest) (*domain.Appointment, error) {
	if req.ClientID == primitive.NilObjectID || req.CoachID == primitive.NilObjectID || req.Title == "" || req.AppointmentDate.IsZero() {
		return nil, validationError("clientId, coachId, title and appointmentDate are required")
	}
	// Clients may only book for themselves.
	if !caller.Role.HasElevatedAccess() && req.ClientID != caller.ID {
		return nil, fmt.Errorf("%w: clients can only book appointments for themselves", ErrPermission)
	}

	duration := domain.DefaultAppointmentDuration
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, validationError("duration must be a positive number of minutes")
		}
		duration = *req.Duration
	}

	apptType := req.Type
	if apptType == "" {
		apptType = domain.TypeConsultation
	}

	// Serialize check-then-insert per coach so two concurrent requests cannot
	// both pass the conflict scan.
	coachMu := s.locks.forCoach(req.CoachID)
	coachMu.Lock()
	defer coachMu.Unlock()

	existing, err := s.apptRepo.GetActiveByCoach(ctx, req.CoachID)
	if err != nil {
		return nil, err
	}
	if conflict := findConflict(existing, req.CoachID, req.AppointmentDate, duration, primitive.NilObjectID); conflict != nil {
		return nil, fmt.Errorf("%w: coach has an appointment from %s to %s",
			ErrConflict,
			conflict.AppointmentDate.Format(time.RFC3339),
			conflict.End().Format(time.RFC3339))
	}

	appt := &domain.Appointment{
		ClientID:        req.ClientID,
		CoachID:         req.CoachID,
		Title:           req.Title,
		Description:     req.Description,
		AppointmentDate: req.AppointmentDate,
		Duration:        duration,
		Type:            apptType,
		Status:          domain.StatusScheduled,
		Notes:           req.Notes,
	}

	apptID, err := s.apptRepo.Create(ctx, appt)
	if err != nil {
		return nil, err
	}
	appt.ID = apptID

	s.log.WithFields(logrus.Fields{
		"appointmentId": apptID.Hex(),
		"coachId":       req.CoachID.Hex(),
		"start":         req.AppointmentDate,
		"duration":      duration,
	}).Info("appointment scheduled")

	return appt, nil
}

func (s *schedulingService) Get(ctx context.Context, caller Caller, id primitive.ObjectID) (*domain.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("appointment")
		}
		return nil, err
	}
	if appt.ClientID != caller.ID && appt.CoachID != caller.ID && !caller.Role.HasElevatedAccess() {
		return nil, ErrPermission
	}
	return appt, nil
}

func (s *schedulingService) List(ctx context.Context, caller Caller, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	// Clients only ever see their own appointments; elevated callers may
	// filter by any client or coach.
	if !caller.Role.HasElevatedAccess() {
		callerID := caller.ID
		filter.ClientID = &callerID
		filter.CoachID = nil
	}
	return s.apptRepo.List(ctx, filter)
}

func (s *schedulingService) Update(ctx context.Context, caller Caller, id primitive.ObjectID, update AppointmentUpdate) (*domain.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("appointment")
		}
		return nil, err
	}

	isClient := appt.ClientID == caller.ID
	elevated := caller.Role.HasElevatedAccess()
	if !isClient && !elevated {
		return nil, ErrPermission
	}

	if !elevated {
		// The appointment's own client may only edit notes.
		if update.Title != nil || update.Description != nil || update.AppointmentDate != nil ||
			update.Duration != nil || update.Type != nil || update.Status != nil ||
			update.ConsultationResults != nil {
			return nil, fmt.Errorf("%w: clients may only update notes", ErrPermission)
		}
		if update.Notes != nil {
			appt.Notes = *update.Notes
		}
		if err := s.apptRepo.Update(ctx, appt); err != nil {
			return nil, err
		}
		return appt, nil
	}

	reschedule := false
	if update.Title != nil {
		appt.Title = *update.Title
	}
	if update.Description != nil {
		appt.Description = *update.Description
	}
	if update.AppointmentDate != nil && !update.AppointmentDate.Equal(appt.AppointmentDate) {
		appt.AppointmentDate = *update.AppointmentDate
		reschedule = true
	}
	if update.Duration != nil && *update.Duration != appt.Duration {
		if *update.Duration <= 0 {
			return nil, validationError("duration must be a positive number of minutes")
		}
		appt.Duration = *update.Duration
		reschedule = true
	}
	if update.Type != nil {
		appt.Type = *update.Type
	}
	if update.Status != nil {
		appt.Status = *update.Status
	}
	if update.Notes != nil {
		appt.Notes = *update.Notes
	}
	if update.ConsultationResults != nil {
		appt.ConsultationResults = update.ConsultationResults
	}

	// Moving the appointment in time re-runs the conflict check against the
	// coach's other active appointments.
	if reschedule && appt.BlocksSlot() {
		coachMu := s.locks.forCoach(appt.CoachID)
		coachMu.Lock()
		defer coachMu.Unlock()

		existing, err := s.apptRepo.GetActiveByCoach(ctx, appt.CoachID)
		if err != nil {
			return nil, err
		}
		if conflict := findConflict(existing, appt.CoachID, appt.AppointmentDate, appt.Duration, appt.ID); conflict != nil {
			return nil, fmt.Errorf("%w: coach has an appointment from %s to %s",
				ErrConflict,
				conflict.AppointmentDate.Format(time.RFC3339),
				conflict.End().Format(time.RFC3339))
		}
	}

	if err := s.apptRepo.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *schedulingService) Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	if !caller.Role.HasElevatedAccess() {
		return ErrPermission
	}
	if err := s.apptRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("appointment")
		}
		return err
	}
	s.log.WithField("appointmentId", id.Hex()).Info("appointment deleted")
	return nil
}
