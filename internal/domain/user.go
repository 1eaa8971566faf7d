package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleClient Role = "client"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

// User represents an account in the system (client, coach or admin).
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName    string              `bson:"firstName" json:"firstName"`
	LastName     string              `bson:"lastName" json:"lastName"`
	Email        string              `bson:"email" json:"email"`    // Should be unique, stored lowercase
	PasswordHash string              `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role                `bson:"role" json:"role"`
	Phone        string              `bson:"phone,omitempty" json:"phone,omitempty"`
	ProfileImage string              `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	DateOfBirth  *time.Time          `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Gender       string              `bson:"gender,omitempty" json:"gender,omitempty"`
	Height       *float64            `bson:"height,omitempty" json:"height,omitempty"` // cm, used for BMI derivation
	Weight       *float64            `bson:"weight,omitempty" json:"weight,omitempty"` // kg
	Goals        string              `bson:"goals,omitempty" json:"goals,omitempty"`
	MedicalNotes string              `bson:"medicalNotes,omitempty" json:"medicalNotes,omitempty"`
	IsActive     bool                `bson:"isActive" json:"isActive"`
	CreatedBy    *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// HasElevatedAccess reports whether the role carries coach-level privileges.
// All role gating goes through this predicate instead of repeating string
// comparisons per handler.
func (r Role) HasElevatedAccess() bool {
	return r == RoleCoach || r == RoleAdmin
}

// IsValid reports whether the role is one of the known variants.
func (r Role) IsValid() bool {
	return r == RoleClient || r == RoleCoach || r == RoleAdmin
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
