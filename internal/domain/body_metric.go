package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurements holds optional body-segment circumferences, all in cm.
type Measurements struct {
	Chest  *float64 `bson:"chest,omitempty" json:"chest,omitempty"`
	Waist  *float64 `bson:"waist,omitempty" json:"waist,omitempty"`
	Hips   *float64 `bson:"hips,omitempty" json:"hips,omitempty"`
	Arms   *float64 `bson:"arms,omitempty" json:"arms,omitempty"`
	Thighs *float64 `bson:"thighs,omitempty" json:"thighs,omitempty"`
	Calves *float64 `bson:"calves,omitempty" json:"calves,omitempty"`
}

// BodyMetric is a point-in-time body composition snapshot for a user.
// BMI is derived once at record creation when the subject's height is known;
// it is never recomputed on read.
type BodyMetric struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID  `bson:"userId" json:"userId"`
	Date         time.Time           `bson:"date" json:"date"`
	Weight       float64             `bson:"weight" json:"weight"` // kg, required
	BodyFat      *float64            `bson:"bodyFat,omitempty" json:"bodyFat,omitempty"` // percent
	MuscleMass   *float64            `bson:"muscleMass,omitempty" json:"muscleMass,omitempty"` // kg
	BMI          *float64            `bson:"bmi,omitempty" json:"bmi,omitempty"`
	Measurements *Measurements       `bson:"measurements,omitempty" json:"measurements,omitempty"`
	Photos       []string            `bson:"photos,omitempty" json:"photos,omitempty"` // progress photo object keys
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	RecordedBy   *primitive.ObjectID `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}

// DeriveBMI computes weight / height_m^2 rounded to one decimal place.
// heightCm must be positive.
func DeriveBMI(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return math.Round(weightKg/(heightM*heightM)*10) / 10
}
