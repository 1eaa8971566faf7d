package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a single exercise entry embedded in a workout.
type Exercise struct {
	Name      string   `bson:"name" json:"name"`
	Sets      int      `bson:"sets" json:"sets"`
	Reps      int      `bson:"reps" json:"reps"`
	Weight    *float64 `bson:"weight,omitempty" json:"weight,omitempty"`     // kg
	Duration  *int     `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Notes     string   `bson:"notes,omitempty" json:"notes,omitempty"`
	Completed bool     `bson:"completed" json:"completed"`
}

// Workout represents a logged workout session for a user.
// Duration and CaloriesBurned are optional; aggregation treats nil as zero.
type Workout struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	Title          string              `bson:"title" json:"title"`
	Description    string              `bson:"description,omitempty" json:"description,omitempty"`
	Date           time.Time           `bson:"date" json:"date"`
	Exercises      []Exercise          `bson:"exercises" json:"exercises"`
	Duration       *int                `bson:"duration,omitempty" json:"duration,omitempty"` // total minutes
	CaloriesBurned *int                `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CoachNotes     string              `bson:"coachNotes,omitempty" json:"coachNotes,omitempty"`
	Completed      bool                `bson:"completed" json:"completed"`
	CreatedBy      *primitive.ObjectID `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// DurationOrZero returns the workout duration, treating absent as 0.
func (w *Workout) DurationOrZero() int {
	if w.Duration == nil {
		return 0
	}
	return *w.Duration
}

// CaloriesOrZero returns the burned calories, treating absent as 0.
func (w *Workout) CaloriesOrZero() int {
	if w.CaloriesBurned == nil {
		return 0
	}
	return *w.CaloriesBurned
}
