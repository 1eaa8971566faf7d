package mongo

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appointmentCollectionName = "appointments"

// mongoAppointmentRepository implements repository.AppointmentRepository
type mongoAppointmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAppointmentRepository creates a new Appointment repository.
func NewMongoAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &mongoAppointmentRepository{
		collection: db.Collection(appointmentCollectionName),
	}
}

// Create inserts a new appointment.
func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) (primitive.ObjectID, error) {
	if appt.ClientID == primitive.NilObjectID || appt.CoachID == primitive.NilObjectID || appt.Title == "" || appt.AppointmentDate.IsZero() {
		return primitive.NilObjectID, errors.New("appointment requires clientId, coachId, title and appointmentDate")
	}
	appt.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, appt)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted appointment ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single appointment by its ID.
func (r *mongoAppointmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	var appt domain.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// List retrieves appointments matching the filter, ascending by date.
func (r *mongoAppointmentRepository) List(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	query := bson.M{}
	if filter.ClientID != nil {
		query["clientId"] = *filter.ClientID
	}
	if filter.CoachID != nil {
		query["coachId"] = *filter.CoachID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if dateQuery := dateRangeQuery(filter.Dates); dateQuery != nil {
		query["appointmentDate"] = dateQuery
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appts []domain.Appointment
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// GetActiveByCoach retrieves every appointment of the coach that still blocks
// its slot. The conflict scan over these happens in the scheduling service.
func (r *mongoAppointmentRepository) GetActiveByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Appointment, error) {
	filter := bson.M{
		"coachId": coachID,
		"status":  bson.M{"$nin": bson.A{domain.StatusCancelled, domain.StatusNoShow}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appts []domain.Appointment
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// GetUpcomingByClient retrieves scheduled appointments at or after from,
// ascending by date, capped at limit.
func (r *mongoAppointmentRepository) GetUpcomingByClient(ctx context.Context, clientID primitive.ObjectID, from time.Time, limit int64) ([]domain.Appointment, error) {
	filter := bson.M{
		"clientId":        clientID,
		"status":          domain.StatusScheduled,
		"appointmentDate": bson.M{"$gte": from},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "appointmentDate", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var appts []domain.Appointment
	if err = cursor.All(ctx, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// Update replaces the appointment document.
func (r *mongoAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	if appt.ID == primitive.NilObjectID {
		return errors.New("appointment ID is required for update")
	}
	appt.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": appt.ID}, appt)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete hard-removes an appointment.
func (r *mongoAppointmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAppointmentIndexes creates necessary indexes. Call during startup.
func EnsureAppointmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "appointmentDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "appointmentDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// dateRangeQuery builds a bson date filter from an optional range.
// Returns nil when both bounds are absent.
func dateRangeQuery(dates repository.DateRange) bson.M {
	if dates.From == nil && dates.To == nil {
		return nil
	}
	query := bson.M{}
	if dates.From != nil {
		query["$gte"] = *dates.From
	}
	if dates.To != nil {
		query["$lte"] = *dates.To
	}
	return query
}
