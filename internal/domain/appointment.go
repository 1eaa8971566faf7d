package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no-show"
)

// AppointmentType categorizes what the session is for.
type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeTraining     AppointmentType = "training"
	TypeFollowUp     AppointmentType = "follow-up"
	TypeAssessment   AppointmentType = "assessment"
)

// DefaultAppointmentDuration is used when a booking request omits the duration.
const DefaultAppointmentDuration = 60 // minutes

// BodyMeasurements is a measurement snapshot captured during a consultation.
type BodyMeasurements struct {
	Weight     *float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Height     *float64 `bson:"height,omitempty" json:"height,omitempty"`
	BodyFat    *float64 `bson:"bodyFat,omitempty" json:"bodyFat,omitempty"`
	MuscleMass *float64 `bson:"muscleMass,omitempty" json:"muscleMass,omitempty"`
	BMI        *float64 `bson:"bmi,omitempty" json:"bmi,omitempty"`
}

// ConsultationResults holds the outcome of a consultation appointment.
type ConsultationResults struct {
	BodyMeasurements *BodyMeasurements `bson:"bodyMeasurements,omitempty" json:"bodyMeasurements,omitempty"`
	Assessment       string            `bson:"assessment,omitempty" json:"assessment,omitempty"`
	Recommendations  string            `bson:"recommendations,omitempty" json:"recommendations,omitempty"`
}

// Appointment represents a booked session between a client and a coach.
//
// Invariant: for a fixed coach, no two appointments whose status is outside
// {cancelled, no-show} may have overlapping [AppointmentDate, End()) intervals.
type Appointment struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ClientID            primitive.ObjectID   `bson:"clientId" json:"clientId"`
	CoachID             primitive.ObjectID   `bson:"coachId" json:"coachId"`
	Title               string               `bson:"title" json:"title"`
	Description         string               `bson:"description,omitempty" json:"description,omitempty"`
	AppointmentDate     time.Time            `bson:"appointmentDate" json:"appointmentDate"`
	Duration            int                  `bson:"duration" json:"duration"` // minutes
	Type                AppointmentType      `bson:"type" json:"type"`
	Status              AppointmentStatus    `bson:"status" json:"status"`
	Notes               string               `bson:"notes,omitempty" json:"notes,omitempty"`
	ConsultationResults *ConsultationResults `bson:"consultationResults,omitempty" json:"consultationResults,omitempty"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// End returns the exclusive end of the appointment interval.
func (a *Appointment) End() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.Duration) * time.Minute)
}

// BlocksSlot reports whether the appointment still occupies its time slot.
// Cancelled and no-show appointments free the slot.
func (a *Appointment) BlocksSlot() bool {
	return a.Status != StatusCancelled && a.Status != StatusNoShow
}

// OverlapsInterval reports whether [start, end) intersects the appointment's
// half-open interval. Exact abutment (a.End() == start) is not an overlap.
func (a *Appointment) OverlapsInterval(start, end time.Time) bool {
	return a.AppointmentDate.Before(end) && start.Before(a.End())
}
