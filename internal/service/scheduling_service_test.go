package service

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type schedulingFixture struct {
	service  SchedulingService
	apptRepo *fakeAppointmentRepo
	coachID  primitive.ObjectID
	clientID primitive.ObjectID
	coach    Caller
	client   Caller
}

func newSchedulingFixture() *schedulingFixture {
	coachID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	apptRepo := &fakeAppointmentRepo{}
	userRepo := newFakeUserRepo(
		&domain.User{ID: coachID, Role: domain.RoleCoach, Email: "coach@allfit.test"},
		&domain.User{ID: clientID, Role: domain.RoleClient, Email: "client@allfit.test"},
	)
	return &schedulingFixture{
		service:  NewSchedulingService(apptRepo, userRepo, testLogger()),
		apptRepo: apptRepo,
		coachID:  coachID,
		clientID: clientID,
		coach:    Caller{ID: coachID, Role: domain.RoleCoach},
		client:   Caller{ID: clientID, Role: domain.RoleClient},
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, time.September, 14, hour, minute, 0, 0, time.UTC)
}

func minutes(n int) *int { return &n }

func (f *schedulingFixture) book(t *testing.T, start time.Time, duration *int) *domain.Appointment {
	t.Helper()
	appt, err := f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
		ClientID:        f.clientID,
		CoachID:         f.coachID,
		Title:           "Training session",
		AppointmentDate: start,
		Duration:        duration,
	})
	require.NoError(t, err)
	return appt
}

func TestScheduleRejectsOverlap(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
	}{
		{"partial overlap at tail", at(9, 30)},
		{"partial overlap at head", at(8, 30)},
		{"identical slot", at(9, 0)},
		{"contained within existing", at(9, 15)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSchedulingFixture()
			f.book(t, at(9, 0), minutes(60)) // 09:00-10:00

			_, err := f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
				ClientID:        f.clientID,
				CoachID:         f.coachID,
				Title:           "Second booking",
				AppointmentDate: tc.start,
				Duration:        minutes(60),
			})
			require.ErrorIs(t, err, ErrConflict)
		})
	}

	// proposal strictly containing the existing appointment
	f := newSchedulingFixture()
	f.book(t, at(9, 0), minutes(60))
	_, err := f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
		ClientID:        f.clientID,
		CoachID:         f.coachID,
		Title:           "Long block",
		AppointmentDate: at(8, 30),
		Duration:        minutes(180),
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestScheduleAdmitsAbutment(t *testing.T) {
	f := newSchedulingFixture()
	f.book(t, at(9, 0), minutes(60)) // 09:00-10:00

	// starting exactly when the previous one ends
	after := f.book(t, at(10, 0), minutes(60))
	assert.Equal(t, at(10, 0), after.AppointmentDate)

	// ending exactly when the first one starts
	before := f.book(t, at(8, 0), minutes(60))
	assert.Equal(t, at(8, 0), before.AppointmentDate)
}

func TestScheduleDefaultsDurationToSixtyMinutes(t *testing.T) {
	f := newSchedulingFixture()
	appt := f.book(t, at(9, 0), nil)
	assert.Equal(t, domain.DefaultAppointmentDuration, appt.Duration)
	assert.Equal(t, at(10, 0), appt.End())
}

func TestScheduleRejectsNonPositiveDuration(t *testing.T) {
	f := newSchedulingFixture()
	for _, d := range []int{0, -30} {
		_, err := f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
			ClientID:        f.clientID,
			CoachID:         f.coachID,
			Title:           "Bad duration",
			AppointmentDate: at(9, 0),
			Duration:        minutes(d),
		})
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestScheduleAcceptsPastDates(t *testing.T) {
	f := newSchedulingFixture()
	past := time.Now().UTC().AddDate(0, -1, 0)
	appt := f.book(t, past, minutes(45))
	assert.Equal(t, past, appt.AppointmentDate)
	assert.Equal(t, domain.StatusScheduled, appt.Status)
}

func TestScheduleIgnoresCancelledAndNoShow(t *testing.T) {
	for _, status := range []domain.AppointmentStatus{domain.StatusCancelled, domain.StatusNoShow} {
		f := newSchedulingFixture()
		appt := f.book(t, at(9, 0), minutes(60))

		_, err := f.service.Update(context.Background(), f.coach, appt.ID, AppointmentUpdate{
			Status: &status,
		})
		require.NoError(t, err)

		// the freed slot is bookable again
		f.book(t, at(9, 0), minutes(60))
	}
}

func TestScheduleDifferentCoachesDoNotConflict(t *testing.T) {
	f := newSchedulingFixture()
	f.book(t, at(9, 0), minutes(60))

	otherCoach := primitive.NewObjectID()
	_, err := f.service.Schedule(context.Background(), Caller{ID: otherCoach, Role: domain.RoleCoach}, ScheduleRequest{
		ClientID:        f.clientID,
		CoachID:         otherCoach,
		Title:           "Parallel session",
		AppointmentDate: at(9, 0),
		Duration:        minutes(60),
	})
	require.NoError(t, err)
}

func TestScheduleClientsBookOnlyThemselves(t *testing.T) {
	f := newSchedulingFixture()
	otherClient := primitive.NewObjectID()

	_, err := f.service.Schedule(context.Background(), f.client, ScheduleRequest{
		ClientID:        otherClient,
		CoachID:         f.coachID,
		Title:           "For someone else",
		AppointmentDate: at(9, 0),
	})
	require.ErrorIs(t, err, ErrPermission)

	// booking for themselves is fine
	_, err = f.service.Schedule(context.Background(), f.client, ScheduleRequest{
		ClientID:        f.clientID,
		CoachID:         f.coachID,
		Title:           "For myself",
		AppointmentDate: at(9, 0),
	})
	require.NoError(t, err)
}

func TestScheduleConcurrentSameSlotAdmitsOne(t *testing.T) {
	f := newSchedulingFixture()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
				ClientID:        f.clientID,
				CoachID:         f.coachID,
				Title:           "Contended slot",
				AppointmentDate: at(9, 0),
				Duration:        minutes(60),
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.apptRepo.appointments, 1)
}

func TestUpdateRescheduleRerunsConflictCheck(t *testing.T) {
	f := newSchedulingFixture()
	f.book(t, at(9, 0), minutes(60))               // 09:00-10:00
	second := f.book(t, at(11, 0), minutes(60))    // 11:00-12:00

	// moving into the occupied slot is a conflict
	newStart := at(9, 30)
	_, err := f.service.Update(context.Background(), f.coach, second.ID, AppointmentUpdate{
		AppointmentDate: &newStart,
	})
	require.ErrorIs(t, err, ErrConflict)

	// growing the duration into the next appointment is a conflict too
	third := f.book(t, at(12, 0), minutes(60)) // 12:00-13:00
	_, err = f.service.Update(context.Background(), f.coach, second.ID, AppointmentUpdate{
		Duration: minutes(90),
	})
	require.ErrorIs(t, err, ErrConflict)
	_ = third
}

func TestUpdateRescheduleExcludesItself(t *testing.T) {
	f := newSchedulingFixture()
	appt := f.book(t, at(9, 0), minutes(60))

	// shifting within the slot it already occupies must not self-conflict
	newStart := at(9, 15)
	updated, err := f.service.Update(context.Background(), f.coach, appt.ID, AppointmentUpdate{
		AppointmentDate: &newStart,
	})
	require.NoError(t, err)
	assert.Equal(t, newStart, updated.AppointmentDate)
}

func TestUpdateClientsMayOnlyEditNotes(t *testing.T) {
	f := newSchedulingFixture()
	appt := f.book(t, at(9, 0), minutes(60))

	newStart := at(14, 0)
	_, err := f.service.Update(context.Background(), f.client, appt.ID, AppointmentUpdate{
		AppointmentDate: &newStart,
	})
	require.ErrorIs(t, err, ErrPermission)

	notes := "running 5 minutes late"
	updated, err := f.service.Update(context.Background(), f.client, appt.ID, AppointmentUpdate{
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, at(9, 0), updated.AppointmentDate)
}

func TestListScopesClientsToOwnAppointments(t *testing.T) {
	f := newSchedulingFixture()
	f.book(t, at(9, 0), minutes(60))

	otherClient := primitive.NewObjectID()
	_, err := f.service.Schedule(context.Background(), f.coach, ScheduleRequest{
		ClientID:        otherClient,
		CoachID:         f.coachID,
		Title:           "Other client session",
		AppointmentDate: at(11, 0),
	})
	require.NoError(t, err)

	// a client asking for someone else's appointments still only sees their own
	appts, err := f.service.List(context.Background(), f.client, repository.AppointmentFilter{
		ClientID: &otherClient,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, f.clientID, appts[0].ClientID)

	// elevated callers see everything
	all, err := f.service.List(context.Background(), f.coach, repository.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteRequiresElevatedAccess(t *testing.T) {
	f := newSchedulingFixture()
	appt := f.book(t, at(9, 0), minutes(60))

	err := f.service.Delete(context.Background(), f.client, appt.ID)
	require.ErrorIs(t, err, ErrPermission)

	err = f.service.Delete(context.Background(), f.coach, appt.ID)
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), f.coach, appt.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
